package domain

import "time"

// SitePreference ranks a clinical site for a staff member. Rank runs from 1
// (best) to 3 (lowest); a site without a preference record is not eligible
// for that staff member at all.
type SitePreference struct {
	SiteID int64 `json:"siteID"`
	Rank   int32 `json:"rank"`
}

type DoctorPreference struct {
	DoctorID int64 `json:"doctorID"`
	Rank     int32 `json:"rank"`
}

type Staff struct {
	ID                int64              `json:"id"`
	FullName          string             `json:"fullName"`
	Competencies      []string           `json:"competencies"`
	SitePreferences   []SitePreference   `json:"sitePreferences"`
	DoctorPreferences []DoctorPreference `json:"doctorPreferences"`
	PrefersAdmin      bool               `json:"prefersAdmin"`
	FlexibleHours     bool               `json:"flexibleHours"`
	MinWeeklyDays     int32              `json:"minWeeklyDays"`
	CreatedAt         time.Time          `json:"createdAt"`
	Version           int32              `json:"-"`
}

func (s *Staff) HasCompetency(role string) bool {
	for _, c := range s.Competencies {
		if c == role {
			return true
		}
	}
	return false
}

// SitePrefRank returns the ranked preference for a site, or 0 when the staff
// member holds no preference record for it.
func (s *Staff) SitePrefRank(siteID int64) int32 {
	for _, p := range s.SitePreferences {
		if p.SiteID == siteID {
			return p.Rank
		}
	}
	return 0
}

func (s *Staff) DoctorPrefRank(doctorID int64) int32 {
	for _, p := range s.DoctorPreferences {
		if p.DoctorID == doctorID {
			return p.Rank
		}
	}
	return 0
}
