package asaas

// Payment status values reported by the gateway.
const (
	PaymentStatusPending        = "PENDING"
	PaymentStatusReceived       = "RECEIVED"
	PaymentStatusConfirmed      = "CONFIRMED"
	PaymentStatusOverdue        = "OVERDUE"
	PaymentStatusRefunded       = "REFUNDED"
	PaymentStatusReceivedInCash = "RECEIVED_IN_CASH"
)

// Billing types accepted by the gateway.
const (
	BillingTypePix        = "PIX"
	BillingTypeBoleto     = "BOLETO"
	BillingTypeCreditCard = "CREDIT_CARD"
	BillingTypeUndefined  = "UNDEFINED"
)

// Webhook event names the billing core reacts to.
const (
	EventPaymentReceived  = "PAYMENT_RECEIVED"
	EventPaymentConfirmed = "PAYMENT_CONFIRMED"
	EventPaymentOverdue   = "PAYMENT_OVERDUE"
	EventPaymentRefunded  = "PAYMENT_REFUNDED"
)

// CustomerRequest creates a gateway customer.
type CustomerRequest struct {
	Name              string `json:"name"`
	CpfCnpj           string `json:"cpfCnpj,omitempty"`
	Email             string `json:"email,omitempty"`
	MobilePhone       string `json:"mobilePhone,omitempty"`
	ExternalReference string `json:"externalReference,omitempty"`
}

// Customer is the gateway's customer record.
type Customer struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	CpfCnpj           string `json:"cpfCnpj"`
	Email             string `json:"email"`
	ExternalReference string `json:"externalReference"`
}

// PaymentSplit is one payout destination inside a payment request.
// Exactly one of FixedValue or PercentualValue is set.
type PaymentSplit struct {
	WalletID        string   `json:"walletId"`
	FixedValue      *float64 `json:"fixedValue,omitempty"`
	PercentualValue *float64 `json:"percentualValue,omitempty"`
}

// PaymentRequest creates a charge, optionally partitioned among wallets.
type PaymentRequest struct {
	Customer          string         `json:"customer"`
	BillingType       string         `json:"billingType"`
	Value             float64        `json:"value"`
	DueDate           string         `json:"dueDate"`
	Description       string         `json:"description,omitempty"`
	ExternalReference string         `json:"externalReference,omitempty"`
	Split             []PaymentSplit `json:"split,omitempty"`
}

// Payment is the gateway's payment record.
type Payment struct {
	ID                string  `json:"id"`
	DateCreated       string  `json:"dateCreated"`
	Customer          string  `json:"customer"`
	Value             float64 `json:"value"`
	NetValue          float64 `json:"netValue"`
	BillingType       string  `json:"billingType"`
	Status            string  `json:"status"`
	DueDate           string  `json:"dueDate"`
	Description       string  `json:"description"`
	ExternalReference string  `json:"externalReference"`
	InvoiceURL        string  `json:"invoiceUrl"`
	BankSlipURL       string  `json:"bankSlipUrl"`
}

// PaymentListOptions filter GET /payments.
type PaymentListOptions struct {
	Customer          string
	Status            string
	ExternalReference string
	Offset            int
	Limit             int
}

// PaymentList is the gateway's paginated payment listing.
type PaymentList struct {
	HasMore    bool      `json:"hasMore"`
	TotalCount int       `json:"totalCount"`
	Limit      int       `json:"limit"`
	Offset     int       `json:"offset"`
	Data       []Payment `json:"data"`
}

// PixQRCode carries the payout artifacts of a PIX charge.
type PixQRCode struct {
	Success        bool   `json:"success"`
	EncodedImage   string `json:"encodedImage"`
	Payload        string `json:"payload"`
	ExpirationDate string `json:"expirationDate"`
}

// SubscriptionRequest creates a recurring charge.
type SubscriptionRequest struct {
	Customer          string         `json:"customer"`
	BillingType       string         `json:"billingType"`
	Value             float64        `json:"value"`
	NextDueDate       string         `json:"nextDueDate"`
	Cycle             string         `json:"cycle"`
	Description       string         `json:"description,omitempty"`
	ExternalReference string         `json:"externalReference,omitempty"`
	Split             []PaymentSplit `json:"split,omitempty"`
}

// Subscription is the gateway's subscription record.
type Subscription struct {
	ID          string  `json:"id"`
	Customer    string  `json:"customer"`
	Value       float64 `json:"value"`
	NextDueDate string  `json:"nextDueDate"`
	Cycle       string  `json:"cycle"`
	Status      string  `json:"status"`
}

// WebhookRequest configures a webhook endpoint at the gateway.
type WebhookRequest struct {
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Email       string   `json:"email,omitempty"`
	Enabled     bool     `json:"enabled"`
	Interrupted bool     `json:"interrupted"`
	AuthToken   string   `json:"authToken,omitempty"`
	SendType    string   `json:"sendType,omitempty"`
	Events      []string `json:"events"`
}

// Webhook is the gateway's webhook configuration record.
type Webhook struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Enabled     bool     `json:"enabled"`
	Interrupted bool     `json:"interrupted"`
	Events      []string `json:"events"`
}

// WebhookList is the gateway's webhook listing.
type WebhookList struct {
	TotalCount int       `json:"totalCount"`
	Data       []Webhook `json:"data"`
}

// Account is the gateway account profile (GET /myAccount).
type Account struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	CpfCnpj   string `json:"cpfCnpj"`
	WalletID  string `json:"walletId"`
	AccountID string `json:"accountNumber"`
}

// Balance is the gateway account balance (GET /finance/balance).
type Balance struct {
	Balance float64 `json:"balance"`
}

// WebhookEvent is the payload the gateway posts to our webhook endpoint.
type WebhookEvent struct {
	Event   string  `json:"event"`
	Payment Payment `json:"payment"`
}
