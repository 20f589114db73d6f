package model

// Taxonomy is the topic tree produced by the clustering stage.
type Taxonomy []Topic

// Topic is one top-level branch of the taxonomy.
type Topic struct {
	TopicName             string     `json:"topicName"`
	TopicShortDescription string     `json:"topicShortDescription,omitempty"`
	Subtopics             []Subtopic `json:"subtopics"`
}

// Subtopic is a second-level branch of the taxonomy.
type Subtopic struct {
	SubtopicName             string `json:"subtopicName"`
	SubtopicShortDescription string `json:"subtopicShortDescription,omitempty"`
}

// Claim is a single extracted claim with its supporting quote.
type Claim struct {
	Claim        string  `json:"claim"`
	Quote        string  `json:"quote"`
	Speaker      string  `json:"speaker,omitempty"`
	TopicName    string  `json:"topicName"`
	SubtopicName string  `json:"subtopicName"`
	CommentID    string  `json:"commentId"`
	Duplicates   []Claim `json:"duplicates,omitempty"`
}

// ClaimsTree groups extracted claims by topic name. This is the extraction
// stage's output and the sort stage's input.
type ClaimsTree map[string]TopicClaims

// TopicClaims holds all claims under one topic, grouped by subtopic name.
type TopicClaims struct {
	Total     int                       `json:"total"`
	Subtopics map[string]SubtopicClaims `json:"subtopics"`
}

// SubtopicClaims holds the claims under one subtopic.
type SubtopicClaims struct {
	Total  int     `json:"total"`
	Claims []Claim `json:"claims"`
}

// SortedTree is the deduplicated, sorted claims tree: the sort stage's
// output. Order is significant (largest branches first).
type SortedTree []SortedTopic

// SortedTopic is one ordered branch of the sorted tree.
type SortedTopic struct {
	TopicName string           `json:"topicName"`
	NumClaims int              `json:"numClaims"`
	NumPeople int              `json:"numPeople"`
	Subtopics []SortedSubtopic `json:"subtopics"`
}

// SortedSubtopic is one ordered subtopic branch with its surviving claims.
// Claims absorbed as duplicates appear nested under their canonical claim.
type SortedSubtopic struct {
	SubtopicName string  `json:"subtopicName"`
	NumClaims    int     `json:"numClaims"`
	NumPeople    int     `json:"numPeople"`
	Claims       []Claim `json:"claims"`
}

// CruxResult is the optional controversy-analysis addon output.
type CruxResult struct {
	CruxClaims        []CruxClaim `json:"cruxClaims"`
	ControversyMatrix [][]float64 `json:"controversyMatrix,omitempty"`
	TopCruxes         []CruxClaim `json:"topCruxes,omitempty"`
}

// CruxClaim is a pair of opposing statements that split the participants.
// Agree lists the speakers siding with CruxA, Disagree those siding with CruxB.
type CruxClaim struct {
	CruxA       string   `json:"cruxA"`
	CruxB       string   `json:"cruxB"`
	Agree       []string `json:"agree,omitempty"`
	Disagree    []string `json:"disagree,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}
