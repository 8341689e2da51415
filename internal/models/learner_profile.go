package models

import "time"

// Archetype enumerates the primary learner personas derived by profiling.
const (
	ArchetypeExplorer  = "EXPLORER"
	ArchetypeArchitect = "ARCHITECT"
	ArchetypeHacker    = "HACKER"
	ArchetypeArtist    = "ARTIST"
)

// LearnerProfile holds derived personality traits for one learner. The
// stability score doubles as the ability proxy consumed by the quality
// engine's discrimination-index computation.
type LearnerProfile struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           string    `gorm:"size:64;not null;uniqueIndex" json:"user_id"`
	PrimaryArchetype string    `gorm:"size:16;not null" json:"primary_archetype"`
	LogicScore       int       `gorm:"not null;default:50" json:"logic_score"`
	EfficiencyScore  int       `gorm:"not null;default:0" json:"efficiency_score"`
	PersistenceScore int       `gorm:"not null;default:0" json:"persistence_score"`
	StabilityScore   int       `gorm:"not null;default:50" json:"stability_score"`
	LastUpdated      time.Time `json:"last_updated"`
}
