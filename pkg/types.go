package pkg

// ChatRequest is one question posted to a session. Optional knobs fall back
// to server configuration when omitted; RAG defaults to the configured
// toggle, which is why it is a pointer.
type ChatRequest struct {
	Question    string   `json:"question"`
	Mode        string   `json:"mode,omitempty"`
	RAG         *bool    `json:"rag,omitempty"`
	TopK        int      `json:"top_k,omitempty"`
	Rerank      bool     `json:"rerank,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
	Model       string   `json:"model,omitempty"`
}

// Citation is the display form of one retrieved passage. Preview is the
// source text truncated for rendering; the full text was what the model saw.
type Citation struct {
	CiteID     string  `json:"cite_id"`
	SourceName string  `json:"source_name"`
	ChunkID    int     `json:"chunk_id"`
	Preview    string  `json:"preview"`
	Score      float64 `json:"score"`
}

// ChatResponse carries the answer and the citations panel for one turn.
// Citations is empty when the answer was not grounded.
type ChatResponse struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
}

// SessionCreated is returned when a new chat session is opened.
type SessionCreated struct {
	SessionID string `json:"session_id"`
}

// UnlockRequest carries the candidate emergency PIN.
type UnlockRequest struct {
	PIN string `json:"pin"`
}

// UnlockResponse reports the gate state after a verification attempt. A
// wrong PIN is a normal outcome, not an error.
type UnlockResponse struct {
	Unlocked bool `json:"unlocked"`
}

// HandoverResponse is the clinician handover note for a session.
type HandoverResponse struct {
	Summary string `json:"summary"`
}

// EmergencyView is the always-visible lifesaving subset of the profile.
// Leaflets appear only when the disclosure gate is unlocked; every other
// field is shown regardless of gate state.
type EmergencyView struct {
	FullName   string               `json:"full_name"`
	DOB        string               `json:"dob"`
	BloodType  string               `json:"blood_type"`
	Allergies  []EmergencyAllergy   `json:"allergies"`
	Conditions []EmergencyCondition `json:"conditions"`
	Medication *EmergencyMed        `json:"medication,omitempty"`
	Contacts   []EmergencyContact   `json:"contacts"`
	MedicalAid EmergencyMedicalAid  `json:"medical_aid"`
	Unlocked   bool                 `json:"unlocked"`
}

type EmergencyAllergy struct {
	Substance string `json:"substance"`
	Severity  string `json:"severity"`
}

type EmergencyCondition struct {
	Name     string `json:"name"`
	Severity string `json:"severity"`
}

// EmergencyMed is the primary medication tile.
type EmergencyMed struct {
	Name            string   `json:"name"`
	DeviceType      string   `json:"device_type"`
	DeviceModel     string   `json:"device_model"`
	DevicePhotos    []string `json:"device_photos"`
	Dosage          string   `json:"dosage"`
	StorageLocation string   `json:"storage_location"`
	HowToUseSteps   []string `json:"how_to_use_steps"`
	Warnings        []string `json:"warnings"`
	Leaflets        []string `json:"leaflets,omitempty"`
}

type EmergencyContact struct {
	Name     string `json:"name"`
	Relation string `json:"relation"`
	Phone    string `json:"phone"`
}

type EmergencyMedicalAid struct {
	Provider         string `json:"provider"`
	Plan             string `json:"plan"`
	MemberNo         string `json:"member_no"`
	EmergencyHotline string `json:"emergency_hotline"`
}
