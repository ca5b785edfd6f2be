package profile

// Patient is the full medical profile document. The schema mirrors the JSON
// file on disk; every slice field is kept non-nil so consumers can range over
// missing sections without guarding.
type Patient struct {
	PatientID         string            `json:"patient_id"`
	Profile           Demographics      `json:"profile"`
	EmergencyContacts []Contact         `json:"emergency_contacts"`
	Conditions        []Condition       `json:"conditions"`
	Allergies         []Allergy         `json:"allergies"`
	Medications       []Medication      `json:"medications"`
	Preferences       map[string]string `json:"preferences"`
	Meta              map[string]string `json:"meta"`
}

// Demographics holds identifying and insurance details.
type Demographics struct {
	FullName   string     `json:"full_name"`
	DOB        string     `json:"dob"`
	BloodType  string     `json:"blood_type"`
	MedicalAid MedicalAid `json:"medical_aid"`
}

type MedicalAid struct {
	Provider         string `json:"provider"`
	Plan             string `json:"plan"`
	MemberNo         string `json:"member_no"`
	EmergencyHotline string `json:"emergency_hotline"`
}

// Contact is an in-case-of-emergency contact.
type Contact struct {
	Name     string `json:"name"`
	Relation string `json:"relation"`
	Phone    string `json:"phone"`
}

type Condition struct {
	Name     string `json:"name"`
	Severity string `json:"severity"`
	Notes    string `json:"notes"`
}

type Allergy struct {
	Substance string `json:"substance"`
	Reaction  string `json:"reaction"`
	Severity  string `json:"severity"`
}

// Medication describes one current medication including the delivery device
// and usage instructions. Leaflets are sensitive: they are only exposed once
// the disclosure gate is unlocked.
type Medication struct {
	Name            string   `json:"name"`
	Device          Device   `json:"device"`
	Dosage          string   `json:"dosage"`
	StorageLocation string   `json:"storage_location"`
	HowToUseSteps   []string `json:"how_to_use_steps"`
	Warnings        []string `json:"warnings"`
	Leaflets        []string `json:"leaflets"`
	LastUpdated     string   `json:"last_updated"`
}

type Device struct {
	Type   string   `json:"type"`
	Model  string   `json:"model"`
	Photos []string `json:"photos"`
}

// Normalize replaces nil slices and maps with empty ones so that a loaded
// document always satisfies the "lists default to empty, never absent"
// invariant regardless of what the JSON file contained.
func (p *Patient) Normalize() {
	if p.EmergencyContacts == nil {
		p.EmergencyContacts = []Contact{}
	}
	if p.Conditions == nil {
		p.Conditions = []Condition{}
	}
	if p.Allergies == nil {
		p.Allergies = []Allergy{}
	}
	if p.Medications == nil {
		p.Medications = []Medication{}
	}
	for i := range p.Medications {
		m := &p.Medications[i]
		if m.Device.Photos == nil {
			m.Device.Photos = []string{}
		}
		if m.HowToUseSteps == nil {
			m.HowToUseSteps = []string{}
		}
		if m.Warnings == nil {
			m.Warnings = []string{}
		}
		if m.Leaflets == nil {
			m.Leaflets = []string{}
		}
	}
	if p.Preferences == nil {
		p.Preferences = map[string]string{}
	}
	if p.Meta == nil {
		p.Meta = map[string]string{}
	}
}

// DefaultPatient returns the demo profile written to disk on first use.
func DefaultPatient() *Patient {
	return &Patient{
		PatientID: "demo-patient-uuid",
		Profile: Demographics{
			FullName:  "Jane Doe",
			DOB:       "1970-06-12",
			BloodType: "O+",
		},
		EmergencyContacts: []Contact{
			{Name: "John Doe", Relation: "Son", Phone: "+27 000 0000"},
		},
		Conditions: []Condition{
			{Name: "Asthma", Severity: "moderate", Notes: "Exercise-induced"},
		},
		Allergies: []Allergy{
			{Substance: "Penicillin", Reaction: "Rash", Severity: "high"},
		},
		Medications: []Medication{
			{
				Name: "Tiotropium capsules",
				Device: Device{
					Type:   "Dry powder inhaler",
					Model:  "HandiHaler",
					Photos: []string{"/media/handihaler_front.jpg", "/media/capsule.jpg"},
				},
				Dosage:          "18 µg once daily",
				StorageLocation: "Handbag, front pouch",
				HowToUseSteps: []string{
					"Open dust cap and mouthpiece.",
					"Place one capsule in the chamber.",
					"Close mouthpiece until it clicks; press button once to pierce capsule.",
					"Exhale away, seal lips around mouthpiece; inhale deeply; hold breath; repeat.",
				},
				Warnings:    []string{"Do not swallow capsules."},
				Leaflets:    []string{"/docs/handihaler_pil.pdf"},
				LastUpdated: "2025-09-01",
			},
		},
		Preferences: map[string]string{"preferred_hospital": "", "gp": ""},
		Meta:        map[string]string{"last_reviewed": "2025-09-10"},
	}
}
