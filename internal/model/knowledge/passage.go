package knowledge

// Passage is one retrieved chunk of the medical knowledge index.
type Passage struct {
	Content  string  `json:"content"`
	Score    float64 `json:"score"`
	SourceID string  `json:"sourceId"`
}

// Entry is a corpus record fed to the offline indexer.
type Entry struct {
	ID      string `yaml:"id"`
	Source  string `yaml:"source"`
	Content string `yaml:"content"`
}
