package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/blood-dispatch/internal/errors"
)

// canReceive applies the ABO/Rh rule directly: the donor may carry no antigen
// the recipient lacks.
func canReceive(recipient, donor BloodType) bool {
	abo := func(t BloodType) string { return strings.TrimRight(string(t), "+-") }
	rhPositive := func(t BloodType) bool { return strings.HasSuffix(string(t), "+") }

	for _, antigen := range []string{"A", "B"} {
		if strings.Contains(abo(donor), antigen) && !strings.Contains(abo(recipient), antigen) {
			return false
		}
	}
	return !rhPositive(donor) || rhPositive(recipient)
}

func TestCompatibleDonorTypes_MatchesABORh(t *testing.T) {
	for _, recipient := range AllBloodTypes {
		got := SpecificType(recipient).CompatibleDonorTypes()

		var want []BloodType
		for _, d := range AllBloodTypes {
			if canReceive(recipient, d) {
				want = append(want, d)
			}
		}
		assert.ElementsMatch(t, want, got, "recipient %s", recipient)

		for _, d := range got {
			assert.True(t, d.CanDonateTo(recipient))
		}
	}
}

func TestCompatibleDonorTypes_Examples(t *testing.T) {
	assert.Equal(t, []BloodType{ONegative}, SpecificType(ONegative).CompatibleDonorTypes())
	assert.ElementsMatch(t, AllBloodTypes, SpecificType(ABPositive).CompatibleDonorTypes())
	assert.ElementsMatch(t, AllBloodTypes, AnyType().CompatibleDonorTypes())
}

func TestCompatibleDonorTypes_ReturnsCopy(t *testing.T) {
	types := SpecificType(ABPositive).CompatibleDonorTypes()
	types[0] = "Z"
	assert.True(t, ABPositive.Valid())
	assert.Equal(t, ONegative, SpecificType(ABPositive).CompatibleDonorTypes()[0])
}

func TestRecordType(t *testing.T) {
	assert.Equal(t, ONegative, SpecificType(ONegative).RecordType(ONegative))
	assert.Equal(t, APositive, SpecificType(APositive).RecordType(ONegative))
	assert.Equal(t, BNegative, AnyType().RecordType(BNegative))
}

func TestParseTypeRequest(t *testing.T) {
	req, err := ParseTypeRequest("ALL", false)
	require.NoError(t, err)
	assert.True(t, req.IsAny())

	req, err = ParseTypeRequest(" ab- ", false)
	require.NoError(t, err)
	bt, ok := req.Specific()
	assert.True(t, ok)
	assert.Equal(t, ABNegative, bt)

	req, err = ParseTypeRequest("O-", true)
	require.NoError(t, err)
	assert.True(t, req.IsAny())
	assert.Equal(t, AnyTypeSentinel, req.String())

	_, err = ParseTypeRequest("C+", false)
	require.Error(t, err)
	assert.True(t, appErrors.IsInvalidArgument(err))
}

func TestRequestStatus(t *testing.T) {
	assert.True(t, StatusPending.Open())
	assert.True(t, StatusActive.Open())
	assert.True(t, StatusFulfilled.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, RequestStatus("ARCHIVED").Valid())
}

func TestNewRequestStats(t *testing.T) {
	stats := NewRequestStats(map[RequestStatus]int{
		StatusPending: 1, StatusActive: 2, StatusFulfilled: 1, StatusCancelled: 1,
	})
	assert.Equal(t, RequestStats{Total: 5, Pending: 1, Active: 2, Fulfilled: 1, Cancelled: 1}, stats)
	assert.Equal(t, RequestStats{}, NewRequestStats(nil))
}
