package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/medico/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindUserByUID(ctx context.Context, userUID string) (models.User, bool, error) {
	args := m.Called(ctx, userUID)
	return args.Get(0).(models.User), args.Bool(1), args.Error(2)
}

func (m *MockRepository) FindCustomer(ctx context.Context, userUID string) (models.Customer, bool, error) {
	args := m.Called(ctx, userUID)
	return args.Get(0).(models.Customer), args.Bool(1), args.Error(2)
}

func (m *MockRepository) FindMedicalProfessional(ctx context.Context, userUID string) (models.MedicalProfessional, bool, error) {
	args := m.Called(ctx, userUID)
	return args.Get(0).(models.MedicalProfessional), args.Bool(1), args.Error(2)
}

func TestResolver_Resolve(t *testing.T) {
	user := models.User{UUID: "u1", Username: "jane"}

	tests := []struct {
		name       string
		uid        string
		setup      func(m *MockRepository)
		wantKind   Kind
		wantAuth   bool
		wantErr    bool
		noRepoCall bool
	}{
		{
			name:       "anonymous request",
			uid:        "",
			setup:      func(_ *MockRepository) {},
			wantKind:   Anonymous,
			noRepoCall: true,
		},
		{
			name: "customer wins",
			uid:  "u1",
			setup: func(m *MockRepository) {
				m.On("FindCustomer", mock.Anything, "u1").Return(models.Customer{User: user}, true, nil).Once()
			},
			wantKind: Customer,
			wantAuth: true,
		},
		{
			name: "medical professional",
			uid:  "u1",
			setup: func(m *MockRepository) {
				m.On("FindCustomer", mock.Anything, "u1").Return(models.Customer{}, false, nil).Once()
				m.On("FindMedicalProfessional", mock.Anything, "u1").
					Return(models.MedicalProfessional{User: user, StaffType: models.StaffNurse}, true, nil).Once()
			},
			wantKind: MedicalPro,
			wantAuth: true,
		},
		{
			name: "authenticated without profile",
			uid:  "u1",
			setup: func(m *MockRepository) {
				m.On("FindCustomer", mock.Anything, "u1").Return(models.Customer{}, false, nil).Once()
				m.On("FindMedicalProfessional", mock.Anything, "u1").Return(models.MedicalProfessional{}, false, nil).Once()
				m.On("FindUserByUID", mock.Anything, "u1").Return(user, true, nil).Once()
			},
			wantKind: Anonymous,
			wantAuth: true,
		},
		{
			name: "repository error",
			uid:  "u1",
			setup: func(m *MockRepository) {
				m.On("FindCustomer", mock.Anything, "u1").Return(models.Customer{}, false, errors.New("db down")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			tt.setup(repo)

			res, err := NewResolver(repo).Resolve(context.Background(), tt.uid)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, res.Kind)
			assert.Equal(t, tt.wantAuth, res.Authenticated())
			switch tt.wantKind {
			case Customer:
				require.NotNil(t, res.Customer)
				assert.Nil(t, res.MedicalPro)
			case MedicalPro:
				require.NotNil(t, res.MedicalPro)
				assert.Nil(t, res.Customer)
			}
			if tt.noRepoCall {
				repo.AssertNotCalled(t, "FindCustomer", mock.Anything, mock.Anything)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, Anonymous, FromContext(context.Background()).Kind)

	res := Resolution{Kind: Customer, User: &models.User{Username: "jane"}}
	ctx := WithResolution(context.Background(), res)
	assert.Equal(t, res, FromContext(ctx))
}
