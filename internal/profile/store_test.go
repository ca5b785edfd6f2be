package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_DefaultInitialization(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "patient.json")
	s := NewStore(path)

	p, err := s.Load()
	require.NoError(t, err)
	assert.FileExists(t, path)

	assert.Equal(t, "Jane Doe", p.Profile.FullName)
	assert.Equal(t, "O+", p.Profile.BloodType)
	require.Len(t, p.Medications, 1)
	assert.Equal(t, "Handbag, front pouch", p.Medications[0].StorageLocation)

	// List fields are present even where the default has no entries.
	assert.NotNil(t, p.EmergencyContacts)
	assert.NotNil(t, p.Conditions)
	assert.NotNil(t, p.Allergies)
	assert.NotNil(t, p.Medications)
	assert.NotNil(t, p.Preferences)
	assert.NotNil(t, p.Meta)
}

func TestStore_LoadNormalizesMissingLists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patient.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"patient_id":"x","medications":[{"name":"Adrenaline"}]}`), 0o644))

	p, err := NewStore(path).Load()
	require.NoError(t, err)
	assert.NotNil(t, p.Allergies)
	assert.Empty(t, p.Allergies)
	require.Len(t, p.Medications, 1)
	assert.NotNil(t, p.Medications[0].HowToUseSteps)
	assert.NotNil(t, p.Medications[0].Warnings)
	assert.NotNil(t, p.Medications[0].Leaflets)
	assert.NotNil(t, p.Medications[0].Device.Photos)
}

func TestStore_RoundTripIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patient.json")
	s := NewStore(path)

	first, err := s.Load()
	require.NoError(t, err)
	require.NoError(t, s.Save(first))

	second, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStore_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patient.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewStore(path).Load()
	require.ErrorIs(t, err, ErrMalformedProfile)
}
