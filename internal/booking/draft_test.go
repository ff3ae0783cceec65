package booking

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/experiencias-arroyo/sierra-explora/internal/eligibility"
	"github.com/experiencias-arroyo/sierra-explora/internal/model"
)

func event() model.Bookable {
	b := model.Bookable{ID: 31, Kind: model.KindEvent, Name: "Festival del Café"}
	b.Resolve(model.FixedSlot{Date: "2025-12-20", Time: "20:00:00"}, model.WeeklyWindow{})
	return b
}

func service() model.Bookable {
	b := model.Bookable{ID: 12, Kind: model.KindService, Name: "Cabalgata"}
	b.Resolve(model.FixedSlot{}, model.WeeklyWindow{DayStart: "Lunes", DayEnd: "Viernes", TimeStart: "09:00 AM", TimeEnd: "06:00 PM"})
	return b
}

func TestNewDraftDefaults(t *testing.T) {
	d := NewDraft(service())
	assert.Equal(t, 1, d.PartySize())
	assert.Equal(t, "", d.Comments())
	assert.Equal(t, "", d.Date())
	assert.False(t, d.Locked())
}

func TestEventDraftIsLocked(t *testing.T) {
	d := NewDraft(event())
	assert.True(t, d.Locked())
	assert.Equal(t, "2025-12-20", d.Date())
	assert.Equal(t, "20:00", d.Time())

	assert.False(t, d.UpdateField(FieldDate, "2025-12-21"))
	assert.False(t, d.UpdateField(FieldTime, "10:00"))
	assert.Equal(t, "2025-12-20", d.Date())
	assert.Equal(t, "20:00", d.Time())

	assert.True(t, d.UpdateField(FieldPartySize, "3"))
	assert.Equal(t, 3, d.PartySize())
}

func TestPartySizeEditsOutOfRangeIgnored(t *testing.T) {
	d := NewDraft(service())
	require.True(t, d.UpdateField(FieldPartySize, "5"))
	for _, v := range []string{"0", "21", "-1", "dos", "2.5", ""} {
		assert.False(t, d.UpdateField(FieldPartySize, v), v)
		assert.Equal(t, 5, d.PartySize(), v)
	}
	assert.True(t, d.UpdateField(FieldPartySize, "20"))
	assert.Equal(t, 20, d.PartySize())
}

func TestCommentsTruncatedOnlyAtSubmission(t *testing.T) {
	d := NewDraft(service())
	long := "  " + strings.Repeat("ñ", 600) + "  "
	require.True(t, d.UpdateField(FieldComments, long))
	assert.Equal(t, long, d.Comments())

	s := d.Submission()
	assert.Equal(t, 500, len([]rune(s.Comments)))
	assert.True(t, strings.HasPrefix(s.Comments, "ñ"))
}

func TestSubmissionPayload(t *testing.T) {
	d := NewDraft(service())
	d.UpdateField(FieldDate, "2025-12-17")
	d.UpdateField(FieldTime, "10:30 AM")
	d.UpdateField(FieldPartySize, "4")
	d.UpdateField(FieldComments, "  vegetariano  ")

	assert.Equal(t, Submission{
		ServiceID:   12,
		ServiceName: "Cabalgata",
		ServiceKind: model.KindService,
		Date:        "2025-12-17",
		Time:        "10:30",
		PartySize:   4,
		Comments:    "vegetariano",
	}, d.Submission())
}

func TestFromSubmissionKeepsRawPartySize(t *testing.T) {
	d := FromSubmission(service(), Submission{Date: "2025-12-17", Time: "10:00", PartySize: 40})
	assert.Equal(t, 40, d.PartySize())

	err := d.Validate(eligibility.DefaultPolicy(), time.Date(2025, 12, 1, 0, 0, 0, 0, time.Local))
	ve, ok := eligibility.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, eligibility.CodePartySize, ve.Code)
}

func TestFromSubmissionRejectsNonCanonicalDate(t *testing.T) {
	now := time.Date(2025, 12, 1, 0, 0, 0, 0, time.Local)
	for _, date := range []string{"2025-+1-07", "2025-+12-16", "2025-012-016"} {
		d := FromSubmission(service(), Submission{Date: date, Time: "10:00", PartySize: 2})
		ve, ok := eligibility.AsValidation(d.Validate(eligibility.DefaultPolicy(), now))
		require.True(t, ok, date)
		assert.Equal(t, eligibility.CodeInvalidDateTime, ve.Code, date)
	}

	d := FromSubmission(service(), Submission{Date: " 2025-12-17 ", Time: "10:00", PartySize: 2})
	require.NoError(t, d.Validate(eligibility.DefaultPolicy(), now))
	assert.Equal(t, "2025-12-17", d.Submission().Date)
}

func TestFromSubmissionForcesEventSlot(t *testing.T) {
	d := FromSubmission(event(), Submission{Date: "2030-01-01", Time: "03:00", PartySize: 2})
	assert.Equal(t, "2025-12-20", d.Date())
	assert.Equal(t, "20:00", d.Time())
	assert.Equal(t, "20:00", d.Submission().Time)
}

func TestScenarioEventAcceptedFortyMinutesBefore(t *testing.T) {
	loc := time.FixedZone("UTC-6", -6*3600)
	p := eligibility.DefaultPolicy().WithLocation(loc)
	d := NewDraft(event())
	now := time.Date(2025, time.December, 20, 19, 20, 0, 0, loc)
	assert.NoError(t, d.Validate(p, now))
}
