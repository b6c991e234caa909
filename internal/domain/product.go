package domain

// PriceUnavailable - сентинел, который коллабораторы возвращают вместо пустой цены
const PriceUnavailable = "Price unavailable"

// RetailerCandidate - ритейлер, предложенный discovery-агентом.
// URL служит ключом дедупликации (trimmed + lowercase).
type RetailerCandidate struct {
	Name         string `json:"vendor"`
	URL          string `json:"url"`
	Price        string `json:"price,omitempty"`
	Availability string `json:"availability,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// RawProduct - продукт, извлеченный со страницы ритейлера, еще не провалидирован
type RawProduct struct {
	Name         string `json:"name"`
	Price        string `json:"price"`
	URL          string `json:"url"`
	Retailer     string `json:"retailer"`
	Availability string `json:"availability,omitempty"`
}

// IsEmpty reports whether the extraction returned nothing usable.
func (p RawProduct) IsEmpty() bool {
	return p.Name == "" && p.URL == ""
}

// ValidatedProduct - продукт, принятый валидатором
type ValidatedProduct struct {
	RawProduct
	ValidationScore float64 `json:"validation_score"`
	Notes           string  `json:"notes,omitempty"`
}
