// internal/models/session.go
package models

import (
	"encoding/json"
	"strings"
)

// CustomerSession is the identity a logged-in customer carries through the
// dashboard. It is created at login, handed to every component that needs it
// and destroyed at logout or on the login redirect.
type CustomerSession struct {
	CustomerID string `json:"customerId"`
	Name       string `json:"name"`

	// Extra keeps any auxiliary identity fields the login flow stored.
	Extra map[string]interface{} `json:"-"`
}

// Initial is the avatar letter shown next to the customer's name.
func (s *CustomerSession) Initial() string {
	for _, r := range s.Name {
		return strings.ToUpper(string(r))
	}
	return "C"
}

func (s *CustomerSession) UnmarshalJSON(data []byte) error {
	raw := map[string]interface{}{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.CustomerID, s.Name, s.Extra = "", "", nil
	for k, v := range raw {
		switch k {
		case "customerId":
			s.CustomerID = stringValue(v)
		case "name":
			s.Name = stringValue(v)
		default:
			if s.Extra == nil {
				s.Extra = make(map[string]interface{})
			}
			s.Extra[k] = v
		}
	}
	return nil
}

func (s CustomerSession) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(s.Extra)+2)
	for k, v := range s.Extra {
		out[k] = v
	}
	out["customerId"] = s.CustomerID
	out["name"] = s.Name
	return json.Marshal(out)
}

// customerId may be stored as a number by older login flows.
func stringValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		b, _ := json.Marshal(t)
		return string(b)
	case nil:
		return ""
	}
	b, _ := json.Marshal(v)
	return string(b)
}
