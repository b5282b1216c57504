package models

import (
	"errors"
	"fmt"
	"time"
)

// Customer профиль пациента.
type Customer struct {
	User        User      `json:"user"`
	DateOfBirth time.Time `json:"dob"`
	CreatedAt   time.Time `json:"created_at"`
}

// NameWithTitle возвращает имя с обращением, например "Ms. Jane Doe".
func (c Customer) NameWithTitle() string {
	return c.User.courtesyTitle() + " " + c.User.FullName()
}

// StaffType тип медицинского работника.
type StaffType int

const (
	StaffDoctor StaffType = iota
	StaffNurse
	StaffPhysicianAssistant
)

// Valid проверяет, что значение входит в перечисление.
func (s StaffType) Valid() bool {
	return s >= StaffDoctor && s <= StaffPhysicianAssistant
}

func (s StaffType) String() string {
	switch s {
	case StaffDoctor:
		return "MD"
	case StaffNurse:
		return "Nurse Practitioner"
	case StaffPhysicianAssistant:
		return "Physician Assistant"
	default:
		return "Unknown"
	}
}

// DoctorSpecialty специализация врача.
type DoctorSpecialty int

const (
	FamilyMedicine DoctorSpecialty = iota
	InternalMedicine
	EmergencyMedicine
	Pediatrics
)

func (d DoctorSpecialty) String() string {
	switch d {
	case FamilyMedicine:
		return "Family Medicine"
	case InternalMedicine:
		return "Internal Medicine"
	case EmergencyMedicine:
		return "Emergency Medicine"
	case Pediatrics:
		return "Pediatrics"
	default:
		return "Unknown"
	}
}

// OtherSpecialty специализация среднего медицинского персонала.
type OtherSpecialty int

const (
	RegisteredNurse OtherSpecialty = iota
	FamilyNurse
	CardiacNurse
	Anesthetist
	Radiologist
)

func (o OtherSpecialty) String() string {
	switch o {
	case RegisteredNurse:
		return "Registered Nurse"
	case FamilyNurse:
		return "Family Nurse"
	case CardiacNurse:
		return "Cardiac Nurse"
	case Anesthetist:
		return "Anesthetist"
	case Radiologist:
		return "Radiologist"
	default:
		return "Unknown"
	}
}

// Specialty специализация медицинского работника: либо DoctorSpecialty, либо OtherSpecialty.
// Реализации ограничены этим пакетом.
type Specialty interface {
	fmt.Stringer
	specialty()
}

func (DoctorSpecialty) specialty() {}
func (OtherSpecialty) specialty()  {}

var (
	// ErrSpecialtyRequired специализация не передана для данного типа персонала.
	ErrSpecialtyRequired = errors.New("specialty is required for staff type")
	// ErrInvalidStaffType неизвестный тип персонала.
	ErrInvalidStaffType = errors.New("invalid staff type")
	// ErrInvalidSpecialty значение вне перечисления.
	ErrInvalidSpecialty = errors.New("invalid specialty")
)

// NewSpecialty выбирает специализацию по типу персонала.
// Для врача используется doctor, для остальных other; второе значение игнорируется.
func NewSpecialty(staff StaffType, doctor *DoctorSpecialty, other *OtherSpecialty) (Specialty, error) {
	switch staff {
	case StaffDoctor:
		if doctor == nil {
			return nil, ErrSpecialtyRequired
		}
		if *doctor < FamilyMedicine || *doctor > Pediatrics {
			return nil, ErrInvalidSpecialty
		}
		return *doctor, nil
	case StaffNurse, StaffPhysicianAssistant:
		if other == nil {
			return nil, ErrSpecialtyRequired
		}
		if *other < RegisteredNurse || *other > Radiologist {
			return nil, ErrInvalidSpecialty
		}
		return *other, nil
	default:
		return nil, ErrInvalidStaffType
	}
}

// MedicalProfessional профиль медицинского работника.
type MedicalProfessional struct {
	User           User      `json:"user"`
	StaffType      StaffType `json:"staff_type"`
	LicensingState string    `json:"state_of_licensure"`
	IsVerified     bool      `json:"is_verified"`
	Specialty      Specialty `json:"-"`
	ProfilePicture string    `json:"profile_picture"`
	LicenseFile    string    `json:"license"`
	CreatedAt      time.Time `json:"created_at"`
}

// NameWithTitle возвращает "Dr." для врачей, иначе обращение по полу.
func (m MedicalProfessional) NameWithTitle() string {
	title := m.User.courtesyTitle()
	if m.StaffType == StaffDoctor {
		title = "Dr."
	}
	return title + " " + m.User.FullName()
}

// SpecialtyColumns раскладывает специализацию по колонкам хранилища.
func (m MedicalProfessional) SpecialtyColumns() (doctor *DoctorSpecialty, other *OtherSpecialty) {
	switch s := m.Specialty.(type) {
	case DoctorSpecialty:
		return &s, nil
	case OtherSpecialty:
		return nil, &s
	}
	return nil, nil
}
