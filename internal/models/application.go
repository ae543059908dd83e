// internal/models/application.go
package models

import "encoding/json"

// ApplicationRecord is the franchise application as the backend reports it.
// It is replaced wholesale on every successful fetch.
type ApplicationRecord struct {
	ApplicationID      string      `json:"applicationId"`
	Name               string      `json:"name"`
	Phone              string      `json:"phone"`
	Address            string      `json:"address"`
	Pincode            string      `json:"pincode"`
	InvestmentAmount   interface{} `json:"investmentAmount"`
	BusinessExperience string      `json:"businessExperience"`
	DateOfApplication  string      `json:"dateOfApplication"`
	Status             string      `json:"status"`
}

// ApplicationStatus returns the parsed status; unknown values read as in review.
func (a *ApplicationRecord) ApplicationStatus() ApplicationStatus {
	return ParseStatus(a.Status)
}

// UnmarshalJSON accepts numbers for the identifier and contact fields as well
// as strings.
func (a *ApplicationRecord) UnmarshalJSON(data []byte) error {
	type plain ApplicationRecord
	aux := struct {
		*plain
		ApplicationID      interface{} `json:"applicationId"`
		Phone              interface{} `json:"phone"`
		Pincode            interface{} `json:"pincode"`
		BusinessExperience interface{} `json:"businessExperience"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.ApplicationID = stringValue(aux.ApplicationID)
	a.Phone = stringValue(aux.Phone)
	a.Pincode = stringValue(aux.Pincode)
	a.BusinessExperience = stringValue(aux.BusinessExperience)
	return nil
}

// ApplicationEnvelope is the body of the application lookups.
type ApplicationEnvelope struct {
	Application *ApplicationRecord `json:"application"`
	Message     string             `json:"message,omitempty"`
}

// ErrorBody is the error shape every portal endpoint may return.
type ErrorBody struct {
	Message string `json:"message"`
}
