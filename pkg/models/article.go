package models

// Article is a single news item. URL is its identity key.
type Article struct {
	Title         string `json:"title" yaml:"title"`
	URL           string `json:"url" yaml:"url"`
	PublishedAt   string `json:"datetime" yaml:"datetime"` // day granularity, "2006-01-02"
	SourceCountry string `json:"source_country,omitempty" yaml:"source_country,omitempty"`
	Language      string `json:"language,omitempty" yaml:"language,omitempty"`
	Domain        string `json:"domain,omitempty" yaml:"domain,omitempty"`
	Snippet       string `json:"snippet,omitempty" yaml:"snippet,omitempty"`
}
