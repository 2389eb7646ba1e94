package models

import (
	"strings"
	"time"
)

// Gender values accepted on a profile.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// TeachSkill is a skill a user offers to teach, with a self-assessed rating.
type TeachSkill struct {
	Name        string `json:"name" bson:"name"`
	Rating      int    `json:"rating" bson:"rating"`
	Description string `json:"description" bson:"description,omitempty"`
}

// ProfileRecord is the scalar profile row stored per user, keyed by the auth
// provider's user id. Skill and interest lists live in their own collections.
type ProfileRecord struct {
	UserID       string    `json:"user_id" bson:"user_id"`
	Email        string    `json:"email" bson:"email,omitempty"`
	Name         string    `json:"name" bson:"name,omitempty"`
	DateOfBirth  string    `json:"date_of_birth" bson:"date_of_birth,omitempty"`
	Gender       string    `json:"gender" bson:"gender,omitempty"`
	SchoolOrJob  string    `json:"school_or_job" bson:"school_or_job,omitempty"`
	Location     string    `json:"location" bson:"location,omitempty"`
	Bio          string    `json:"bio" bson:"bio,omitempty"`
	ProfileImage string    `json:"profile_image,omitempty" bson:"profile_image,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// Profile is the fully assembled view returned to clients: the scalar record
// plus its dependent lists and the accepted-connection peer ids.
type Profile struct {
	ProfileRecord `bson:",inline"`

	SkillsToTeach []TeachSkill `json:"skills_to_teach"`
	SkillsToLearn []string     `json:"skills_to_learn"`
	Interests     []string     `json:"interests"`
	Connections   []string     `json:"connections"`

	// ProfileComplete is derived, never stored. See DeriveComplete.
	ProfileComplete bool `json:"profile_complete" bson:"-"`
}

// DeriveComplete reports whether the minimum required fields are populated:
// name, location and school/job must all be non-empty after trimming.
func (p *Profile) DeriveComplete() bool {
	return strings.TrimSpace(p.Name) != "" &&
		strings.TrimSpace(p.Location) != "" &&
		strings.TrimSpace(p.SchoolOrJob) != ""
}

// PublicProfile is safe to share with other authenticated users
// (no email, no date of birth).
type PublicProfile struct {
	UserID        string       `json:"user_id"`
	Name          string       `json:"name"`
	Gender        string       `json:"gender"`
	SchoolOrJob   string       `json:"school_or_job"`
	Location      string       `json:"location"`
	Bio           string       `json:"bio"`
	ProfileImage  string       `json:"profile_image,omitempty"`
	SkillsToTeach []TeachSkill `json:"skills_to_teach"`
	SkillsToLearn []string     `json:"skills_to_learn"`
	Interests     []string     `json:"interests"`
}

// Public strips the private fields from a profile.
func (p *Profile) Public() PublicProfile {
	return PublicProfile{
		UserID:        p.UserID,
		Name:          p.Name,
		Gender:        p.Gender,
		SchoolOrJob:   p.SchoolOrJob,
		Location:      p.Location,
		Bio:           p.Bio,
		ProfileImage:  p.ProfileImage,
		SkillsToTeach: p.SkillsToTeach,
		SkillsToLearn: p.SkillsToLearn,
		Interests:     p.Interests,
	}
}

// UpdateProfileRequest is a partial update. Pointer fields distinguish
// "not supplied" (nil, leave untouched) from "explicitly cleared" (empty).
type UpdateProfileRequest struct {
	Name         *string `json:"name"`
	DateOfBirth  *string `json:"date_of_birth"`
	Gender       *string `json:"gender"`
	SchoolOrJob  *string `json:"school_or_job"`
	Location     *string `json:"location"`
	Bio          *string `json:"bio"`
	ProfileImage *string `json:"profile_image"`

	SkillsToTeach *[]TeachSkill `json:"skills_to_teach"`
	SkillsToLearn *[]string     `json:"skills_to_learn"`
	Interests     *[]string     `json:"interests"`
}

func (r *UpdateProfileRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Gender != nil && *r.Gender != "" {
		switch *r.Gender {
		case GenderMale, GenderFemale, GenderOther:
		default:
			errors["gender"] = "Gender must be male, female or other"
		}
	}
	if r.DateOfBirth != nil && *r.DateOfBirth != "" {
		if _, err := time.Parse("2006-01-02", *r.DateOfBirth); err != nil {
			errors["date_of_birth"] = "Date of birth must be YYYY-MM-DD"
		}
	}
	if r.SkillsToTeach != nil {
		for _, s := range *r.SkillsToTeach {
			if strings.TrimSpace(s.Name) == "" {
				errors["skills_to_teach"] = "Skill name is required"
				break
			}
			if s.Rating < 1 || s.Rating > 5 {
				errors["skills_to_teach"] = "Skill rating must be between 1 and 5"
				break
			}
		}
	}

	return errors
}

// SearchFilters narrows user discovery. Text filters are case-insensitive
// substring matches; the caller is always excluded from results.
type SearchFilters struct {
	Location      string   `json:"location,omitempty"`
	Gender        string   `json:"gender,omitempty"`
	MinAge        int      `json:"min_age,omitempty"`
	MaxAge        int      `json:"max_age,omitempty"`
	SkillsToTeach []string `json:"skills_to_teach,omitempty"`
	SkillsToLearn []string `json:"skills_to_learn,omitempty"`
	Interests     []string `json:"interests,omitempty"`
}
