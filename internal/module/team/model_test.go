package team

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTeam_Leader(t *testing.T) {
	leaderID := uuid.New()
	memberID := uuid.New()

	tests := []struct {
		name     string
		members  []TeamMember
		expected *uuid.UUID
	}{
		{"empty roster", nil, nil},
		{"no leader entry", []TeamMember{{UserID: memberID, Role: RoleMember}}, nil},
		{
			"leader present",
			[]TeamMember{
				{UserID: memberID, Role: RoleMember},
				{UserID: leaderID, Role: RoleLeader},
			},
			&leaderID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			team := &Team{Members: tt.members}
			leader := team.Leader()
			if tt.expected == nil {
				assert.Nil(t, leader)
			} else {
				assert.NotNil(t, leader)
				assert.Equal(t, *tt.expected, leader.UserID)
			}
		})
	}
}

func TestTeam_HasMember(t *testing.T) {
	memberID := uuid.New()
	team := &Team{Members: []TeamMember{{UserID: memberID, Role: RoleMember}}}

	assert.True(t, team.HasMember(memberID))
	assert.False(t, team.HasMember(uuid.New()))
}

func TestTeam_IsActive(t *testing.T) {
	assert.True(t, (&Team{Status: TeamStatusActive}).IsActive())
	assert.False(t, (&Team{Status: TeamStatusDisbanded}).IsActive())
}

func TestJoinRequest_IsPending(t *testing.T) {
	tests := []struct {
		status   RequestStatus
		expected bool
	}{
		{RequestStatusPending, true},
		{RequestStatusAccepted, false},
		{RequestStatusRejected, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			request := &JoinRequest{Status: tt.status}
			assert.Equal(t, tt.expected, request.IsPending())
		})
	}
}

func TestParticipation_IsEligible(t *testing.T) {
	tests := []struct {
		status   ParticipationStatus
		expected bool
	}{
		{ParticipationApproved, true},
		{ParticipationPending, false},
		{ParticipationRejected, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			participation := &Participation{Status: tt.status}
			assert.Equal(t, tt.expected, participation.IsEligible())
		})
	}
}
