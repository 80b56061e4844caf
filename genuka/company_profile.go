package genuka

import "encoding/json"

// CompanyProfile is the company document returned by the admin API.
// Field names have drifted between API revisions, so both snake_case and
// camelCase spellings are accepted, and the phone number may live either at
// the top level or under metadata.contact.
type CompanyProfile struct {
	ID          string
	Handle      string
	Name        string
	Description string
	LogoURL     string
	Phone       string
}

type companyProfileJSON struct {
	ID           string `json:"id"`
	Handle       string `json:"handle"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	LogoURL      string `json:"logo_url"`
	LogoURLCamel string `json:"logoUrl"`
	Phone        string `json:"phone"`
	Metadata     struct {
		Contact string `json:"contact"`
	} `json:"metadata"`
}

func (p *CompanyProfile) UnmarshalJSON(data []byte) error {
	var raw companyProfileJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.ID = raw.ID
	p.Handle = raw.Handle
	p.Name = raw.Name
	p.Description = raw.Description

	p.LogoURL = raw.LogoURL
	if p.LogoURL == "" {
		p.LogoURL = raw.LogoURLCamel
	}

	// metadata.contact wins over the top-level field when both are present.
	p.Phone = raw.Metadata.Contact
	if p.Phone == "" {
		p.Phone = raw.Phone
	}

	return nil
}
