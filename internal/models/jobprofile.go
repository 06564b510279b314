package models

// JobProfileRow is a single skill row of the per-course job profile table.
// Percent columns are stored as display strings ("10%", "-") exactly as the
// form renders them; derived columns are recomputed on every save.
type JobProfileRow struct {
	Skill      string `json:"skill"`
	Weight     string `json:"weight"`
	System     string `json:"system"`
	Assignment string `json:"assignment"`
	Instructor string `json:"instructor"`
	UserGrade  string `json:"usergrade"`
	UserSkill  string `json:"userskill"`
}

// DefaultJobProfileRows is the built-in dataset used when no profile has been
// saved for a course yet, or when the persisted blob cannot be decoded.
func DefaultJobProfileRows() []JobProfileRow {
	return []JobProfileRow{
		{Skill: "Organizational Skills", Weight: "10%", System: "60%", Assignment: "-", Instructor: "40%", UserGrade: "90%", UserSkill: "9%"},
		{Skill: "Communication Skills", Weight: "5%", System: "-", Assignment: "60%", Instructor: "40%", UserGrade: "70%", UserSkill: "3.5%"},
		{Skill: "Collaboration", Weight: "5%", System: "-", Assignment: "80%", Instructor: "20%", UserGrade: "60%", UserSkill: "3.0%"},
		{Skill: "Stress Management", Weight: "5%", System: "80%", Assignment: "20%", Instructor: "-", UserGrade: "30%", UserSkill: "1.5%"},
		{Skill: "", Weight: "3%", System: "-", Assignment: "-", Instructor: "100%", UserGrade: "85%", UserSkill: "2.6%"},
		{Skill: "", Weight: "-", System: "20%", Assignment: "80%", Instructor: "80%", UserGrade: "60%", UserSkill: "0%"},
	}
}
