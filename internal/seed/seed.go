package seed

import (
	"log/slog"
	"time"

	"github.com/planbloc-dev/secretariat-planner/backend/internal/domain"
	"github.com/planbloc-dev/secretariat-planner/backend/internal/repository"
)

// SeedRealData inserts a realistic working week for a small surgical unit:
// reference data first, then demand for the week starting at monday.
func SeedRealData(r *repository.Repository, monday time.Time) {
	sites := []*domain.Site{
		{Name: "Consultations Nord"},
		{Name: "Consultations Sud"},
		{Name: "Centre d'imagerie"},
	}
	for _, site := range sites {
		if err := r.CreateSite(site); err != nil {
			slog.Error("unable to insert site", "name", site.Name, "error", err)
			return
		}
	}

	doctors := []*domain.Doctor{
		{FullName: "Dr Anne Mercier"},
		{FullName: "Dr Paul Garnier"},
		{FullName: "Dr Sophie Blanchard"},
		{FullName: "Dr Luc Chevalier"},
	}
	for _, doctor := range doctors {
		if err := r.CreateDoctor(doctor); err != nil {
			slog.Error("unable to insert doctor", "name", doctor.FullName, "error", err)
			return
		}
	}

	rooms := []*domain.Room{
		{Name: "Salle 1"},
		{Name: "Salle 2"},
		{Name: "Salle endoscopie"},
	}
	for _, room := range rooms {
		if err := r.CreateRoom(room); err != nil {
			slog.Error("unable to insert room", "name", room.Name, "error", err)
			return
		}
	}

	arthroscopie := &domain.InterventionType{Name: "Arthroscopie", PreferredRoomID: &rooms[0].ID}
	endoscopie := &domain.InterventionType{Name: "Endoscopie digestive", PreferredRoomID: &rooms[2].ID}
	catheter := &domain.InterventionType{Name: "Pose de cathéter"}

	if err := r.CreateInterventionType(arthroscopie, []domain.RoleRequirement{
		{Role: "instrumentiste", Count: 1},
		{Role: "aide de salle", Count: 1},
	}); err != nil {
		slog.Error("unable to insert intervention type", "error", err)
		return
	}
	if err := r.CreateInterventionType(endoscopie, []domain.RoleRequirement{
		{Role: "instrumentiste", Count: 1},
	}); err != nil {
		slog.Error("unable to insert intervention type", "error", err)
		return
	}
	if err := r.CreateInterventionType(catheter, []domain.RoleRequirement{
		{Role: "aide de salle", Count: 1},
	}); err != nil {
		slog.Error("unable to insert intervention type", "error", err)
		return
	}

	if err := r.CreateMultiFlowConfig(&domain.MultiFlowConfig{
		RoomID:              rooms[1].ID,
		InterventionTypeIDs: []int64{endoscopie.ID, catheter.ID},
	}); err != nil {
		slog.Error("unable to insert multi-flow config", "error", err)
		return
	}

	staff := []*domain.Staff{
		{
			FullName:     "Camille Martin",
			Competencies: []string{"instrumentiste", "aide de salle"},
			SitePreferences: []domain.SitePreference{
				{SiteID: sites[0].ID, Rank: 1},
				{SiteID: sites[1].ID, Rank: 2},
			},
			DoctorPreferences: []domain.DoctorPreference{
				{DoctorID: doctors[0].ID, Rank: 1},
			},
		},
		{
			FullName:     "Julie Leroy",
			Competencies: []string{"instrumentiste"},
			SitePreferences: []domain.SitePreference{
				{SiteID: sites[1].ID, Rank: 1},
				{SiteID: sites[2].ID, Rank: 2},
			},
			DoctorPreferences: []domain.DoctorPreference{
				{DoctorID: doctors[1].ID, Rank: 1},
				{DoctorID: doctors[2].ID, Rank: 2},
			},
			FlexibleHours: true,
			MinWeeklyDays: 3,
		},
		{
			FullName:     "Nathalie Dubois",
			Competencies: []string{"aide de salle"},
			SitePreferences: []domain.SitePreference{
				{SiteID: sites[0].ID, Rank: 2},
				{SiteID: sites[2].ID, Rank: 1},
			},
			PrefersAdmin: true,
		},
		{
			FullName:     "Thomas Roux",
			Competencies: []string{"instrumentiste", "aide de salle"},
			SitePreferences: []domain.SitePreference{
				{SiteID: sites[0].ID, Rank: 3},
				{SiteID: sites[1].ID, Rank: 2},
				{SiteID: sites[2].ID, Rank: 3},
			},
		},
	}
	for _, st := range staff {
		if err := r.CreateStaff(st); err != nil {
			slog.Error("unable to insert staff", "name", st.FullName, "error", err)
			return
		}
	}

	// One exclusion: Thomas never works with Dr Chevalier.
	if err := r.CreateExclusion(&domain.Exclusion{
		StaffID:  staff[3].ID,
		DoctorID: doctors[3].ID,
	}); err != nil {
		slog.Error("unable to insert exclusion", "error", err)
		return
	}

	weekdays := make([]time.Time, 0, 5)
	for i := 0; i < 5; i++ {
		weekdays = append(weekdays, monday.AddDate(0, 0, i))
	}

	// Everyone is available all week except Julie, who is off on Wednesday.
	for _, st := range staff {
		for _, date := range weekdays {
			if st.ID == staff[1].ID && date.Equal(weekdays[2]) {
				continue
			}
			if err := r.CreateAvailability(&domain.Availability{
				StaffID: st.ID,
				Date:    date,
			}, true); err != nil {
				slog.Error("unable to insert availability", "error", err)
				return
			}
		}
	}
	if err := r.CreateAbsence(&domain.Absence{
		StaffID: staff[1].ID,
		Date:    weekdays[2],
		FullDay: true,
	}); err != nil {
		slog.Error("unable to insert absence", "error", err)
		return
	}

	procedures := []*domain.Procedure{
		{Date: weekdays[0], Period: domain.PeriodMorning, InterventionTypeID: arthroscopie.ID, DoctorID: doctors[0].ID},
		{Date: weekdays[0], Period: domain.PeriodAfternoon, InterventionTypeID: endoscopie.ID, DoctorID: doctors[1].ID},
		{Date: weekdays[1], Period: domain.PeriodMorning, InterventionTypeID: endoscopie.ID, DoctorID: doctors[1].ID},
		{Date: weekdays[2], Period: domain.PeriodMorning, InterventionTypeID: arthroscopie.ID, DoctorID: doctors[3].ID},
		{Date: weekdays[3], Period: domain.PeriodAfternoon, InterventionTypeID: catheter.ID, DoctorID: doctors[2].ID},
		{Date: weekdays[4], Period: domain.PeriodMorning, InterventionTypeID: arthroscopie.ID, DoctorID: doctors[0].ID},
	}
	for _, proc := range procedures {
		if err := r.CreateProcedure(proc); err != nil {
			slog.Error("unable to insert procedure", "error", err)
			return
		}
	}

	neededSlots := []*domain.NeededSlot{
		{SiteID: sites[0].ID, DoctorID: doctors[0].ID, Date: weekdays[1], Period: domain.PeriodMorning, Weight: 1.0},
		{SiteID: sites[0].ID, DoctorID: doctors[2].ID, Date: weekdays[1], Period: domain.PeriodMorning, Weight: 0.5},
		{SiteID: sites[1].ID, DoctorID: doctors[1].ID, Date: weekdays[2], Period: domain.PeriodAfternoon, Weight: 1.0},
		{SiteID: sites[2].ID, DoctorID: doctors[2].ID, Date: weekdays[3], Period: domain.PeriodMorning, Weight: 1.0},
		{SiteID: sites[2].ID, DoctorID: doctors[3].ID, Date: weekdays[4], Period: domain.PeriodAfternoon, Weight: 0.5},
	}
	for _, ns := range neededSlots {
		if err := r.CreateNeededSlot(ns); err != nil {
			slog.Error("unable to insert needed slot", "error", err)
			return
		}
	}

	slog.Info("seed data inserted",
		"sites", len(sites), "doctors", len(doctors), "rooms", len(rooms),
		"staff", len(staff), "procedures", len(procedures), "neededSlots", len(neededSlots))
}
