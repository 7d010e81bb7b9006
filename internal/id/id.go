package id

import "github.com/google/uuid"

// FormatRuleID returns a rule ID like "sum:37" or "formula:30".
func FormatRuleID(kind, key string) string {
	return kind + ":" + key
}

// ColumnRuleID qualifies a rule ID with the value column it ran on:
// "sum:37@netto".
func ColumnRuleID(ruleID, column string) string {
	if column == "" {
		return ruleID
	}
	return ruleID + "@" + column
}

// NewRunID returns a random identifier for one validation run.
func NewRunID() string {
	return uuid.NewString()
}

// ValidRunID reports whether s is a run ID produced by NewRunID.
func ValidRunID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
