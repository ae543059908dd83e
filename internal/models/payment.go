// internal/models/payment.go
package models

// BankDetails is what the payment window needs from the backend. QRCodePath
// is optional; the window renders a placeholder without it.
type BankDetails struct {
	QRCodePath    string `json:"qrCodePath,omitempty"`
	AccountName   string `json:"accountName,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
	IFSCCode      string `json:"ifscCode,omitempty"`
	BankName      string `json:"bankName,omitempty"`
	UPIID         string `json:"upiId,omitempty"`
}

type BankDetailsEnvelope struct {
	BankDetails *BankDetails `json:"bankDetails"`
}

// PaymentNotificationRequest tells the backend the customer claims to have paid.
type PaymentNotificationRequest struct {
	CustomerID    string `json:"customerId"`
	PaymentStage  string `json:"paymentStage"`
	PaymentMethod string `json:"paymentMethod"`
}
