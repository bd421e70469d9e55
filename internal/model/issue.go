package model

// Issue is one support ticket as fetched from Jira, flattened to plain
// text. Immutable once written to the fetch journal.
type Issue struct {
	Key         string `json:"key"`
	Type        string `json:"type"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
}

// ServerRecord is one line of the server-mentions journal. Servers may
// be empty: "no server mentioned" is a recorded fact, not an omission.
type ServerRecord struct {
	Key     string   `json:"key"`
	Servers []string `json:"servers"`
}

// LabelRecord is one line of the technology-annotations journal.
type LabelRecord struct {
	Key   string `json:"key"`
	Label Label  `json:"label"`
}

// Checkpoint is the single-slot fetch progress snapshot. It is replaced
// wholesale after every page, never partially updated.
type Checkpoint struct {
	JQL           string `json:"jql"`
	PageSize      int    `json:"page_size"`
	NextPageToken string `json:"next_page_token"`
	PageIndex     int    `json:"page_index"`
	SavedUnique   int    `json:"saved_unique"`
	IsLast        bool   `json:"is_last"`
}

// TechCount is one row of the technology frequency table.
type TechCount struct {
	Technology string `json:"technology"`
	Count      int    `json:"count"`
}

// ServerCount is one row of the server frequency table.
type ServerCount struct {
	Server string `json:"server"`
	Count  int    `json:"count"`
}

// UnresolvedIssue identifies a ticket whose text mentioned no
// recognizable server, kept with its summary for operator triage.
type UnresolvedIssue struct {
	Key     string `json:"key"`
	Summary string `json:"summary"`
}
