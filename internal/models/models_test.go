package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSpecialty(t *testing.T) {
	doctor := Pediatrics
	other := CardiacNurse
	badDoctor := DoctorSpecialty(9)

	tests := []struct {
		name    string
		staff   StaffType
		doctor  *DoctorSpecialty
		other   *OtherSpecialty
		want    Specialty
		wantErr error
	}{
		{name: "doctor uses doctor specialty", staff: StaffDoctor, doctor: &doctor, other: &other, want: Pediatrics},
		{name: "doctor without specialty", staff: StaffDoctor, other: &other, wantErr: ErrSpecialtyRequired},
		{name: "nurse uses other specialty", staff: StaffNurse, doctor: &doctor, other: &other, want: CardiacNurse},
		{name: "assistant without specialty", staff: StaffPhysicianAssistant, doctor: &doctor, wantErr: ErrSpecialtyRequired},
		{name: "doctor specialty out of range", staff: StaffDoctor, doctor: &badDoctor, wantErr: ErrInvalidSpecialty},
		{name: "unknown staff type", staff: StaffType(7), doctor: &doctor, wantErr: ErrInvalidStaffType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewSpecialty(tt.staff, tt.doctor, tt.other)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNameWithTitle(t *testing.T) {
	jane := User{FirstName: "Jane", LastName: "Doe", Gender: GenderFemale}
	john := User{FirstName: "John", LastName: "Roe", Gender: GenderMale}

	assert.Equal(t, "Ms. Jane Doe", Customer{User: jane}.NameWithTitle())
	assert.Equal(t, "Mr. John Roe", Customer{User: john}.NameWithTitle())
	assert.Equal(t, "Dr. Jane Doe", MedicalProfessional{User: jane, StaffType: StaffDoctor}.NameWithTitle())
	assert.Equal(t, "Mr. John Roe", MedicalProfessional{User: john, StaffType: StaffNurse}.NameWithTitle())
}

func TestSpecialtyColumns(t *testing.T) {
	d, o := MedicalProfessional{Specialty: InternalMedicine}.SpecialtyColumns()
	require.NotNil(t, d)
	assert.Nil(t, o)
	assert.Equal(t, InternalMedicine, *d)

	d, o = MedicalProfessional{Specialty: Radiologist}.SpecialtyColumns()
	assert.Nil(t, d)
	require.NotNil(t, o)
	assert.Equal(t, Radiologist, *o)
}

func TestRemoteSubscription_Active(t *testing.T) {
	assert.True(t, RemoteSubscription{Status: "active"}.Active())
	assert.True(t, RemoteSubscription{Status: "past_due"}.Active())
	assert.False(t, RemoteSubscription{Status: SubscriptionCanceled}.Active())
	assert.False(t, RemoteSubscription{Status: SubscriptionIncompleteExpired}.Active())
}

func TestPrice_HumanReadable(t *testing.T) {
	assert.Equal(t, "$20.00 USD", Price{UnitAmount: 2000, Currency: "usd"}.HumanReadable())
	assert.Equal(t, "$9.05 USD/month", Price{UnitAmount: 905, Currency: "usd", Interval: "month"}.HumanReadable())
	assert.Equal(t, "15.50 EUR", Price{UnitAmount: 1550, Currency: "eur"}.HumanReadable())
}
