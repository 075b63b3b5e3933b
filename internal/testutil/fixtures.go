package testutil

// TinyPNGBase64 is a 1x1 PNG encoded as base64, standing in for the
// QR code image returned by the payment gateway.
const TinyPNGBase64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="
