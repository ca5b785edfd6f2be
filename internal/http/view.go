package http

import (
	"strings"

	"emergency-profile-agent/internal/profile"
	"emergency-profile-agent/pkg"
)

// previewLimit caps citation previews for display. The truncation is
// display-only; the full passage text has already gone to the model.
const previewLimit = 300

// previewText collapses a passage body to a single line and truncates it to
// previewLimit runes with an ellipsis.
func previewText(text string) string {
	flat := strings.TrimSpace(strings.Join(strings.Fields(text), " "))
	runes := []rune(flat)
	if len(runes) <= previewLimit {
		return flat
	}
	return string(runes[:previewLimit]) + "…"
}

// maxListed caps the allergy/condition strips, matching the emergency card.
const maxListed = 3

// emergencyView projects the patient document onto the emergency screen:
// identity strip, top allergies and conditions, primary medication tile, ICE
// contacts and medical aid. Leaflets are included only when unlocked.
func emergencyView(p *profile.Patient, unlocked bool) pkg.EmergencyView {
	view := pkg.EmergencyView{
		FullName:  p.Profile.FullName,
		DOB:       p.Profile.DOB,
		BloodType: p.Profile.BloodType,
		MedicalAid: pkg.EmergencyMedicalAid{
			Provider:         p.Profile.MedicalAid.Provider,
			Plan:             p.Profile.MedicalAid.Plan,
			MemberNo:         p.Profile.MedicalAid.MemberNo,
			EmergencyHotline: p.Profile.MedicalAid.EmergencyHotline,
		},
		Allergies:  []pkg.EmergencyAllergy{},
		Conditions: []pkg.EmergencyCondition{},
		Contacts:   []pkg.EmergencyContact{},
		Unlocked:   unlocked,
	}
	for i, a := range p.Allergies {
		if i == maxListed {
			break
		}
		view.Allergies = append(view.Allergies, pkg.EmergencyAllergy{Substance: a.Substance, Severity: a.Severity})
	}
	for i, c := range p.Conditions {
		if i == maxListed {
			break
		}
		view.Conditions = append(view.Conditions, pkg.EmergencyCondition{Name: c.Name, Severity: c.Severity})
	}
	for _, c := range p.EmergencyContacts {
		view.Contacts = append(view.Contacts, pkg.EmergencyContact{Name: c.Name, Relation: c.Relation, Phone: c.Phone})
	}
	if len(p.Medications) > 0 {
		m := p.Medications[0]
		photos := m.Device.Photos
		if len(photos) > maxListed {
			photos = photos[:maxListed]
		}
		med := &pkg.EmergencyMed{
			Name:            m.Name,
			DeviceType:      m.Device.Type,
			DeviceModel:     m.Device.Model,
			DevicePhotos:    photos,
			Dosage:          m.Dosage,
			StorageLocation: m.StorageLocation,
			HowToUseSteps:   m.HowToUseSteps,
			Warnings:        m.Warnings,
		}
		if unlocked {
			med.Leaflets = m.Leaflets
		}
		view.Medication = med
	}
	return view
}
