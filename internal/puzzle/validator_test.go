package puzzle

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var playedHistory = []string{
	HandshakeToken,
	LeetCalibrate,
	DecimalCodes("PURGE"),
	"\\u{1F91D} c4l1br4t3_syst3m 80 85 82 71 69",
	"VENT_PLASMA",
	"AUTHORIZE_ADMIN_OVERRIDE",
	"SET_TERMINAL_ANCHORS",
}

func answers() map[int]struct {
	input string
	snap  Snapshot
} {
	checksum, _ := Checksum(playedHistory)
	return map[int]struct {
		input string
		snap  Snapshot
	}{
		1: {input: HandshakeToken},
		2: {input: LeetCalibrate},
		3: {input: "80 85 82 71 69"},
		4: {input: "a b c", snap: Snapshot{History: []string{"a", "b", "c"}}},
		5: {input: "VENT_PLASMA"},
		6: {input: "AUTHORIZE_ADMIN_OVERRIDE"},
		7: {input: "SET_TERMINAL_ANCHORS"},
		8: {input: fmt.Sprintf("RUN_POWER_DIAGNOSTIC %d", checksum), snap: Snapshot{History: playedHistory}},
		9: {input: "LAUNCH_PAYLOAD doge_kabosu.jpg", snap: Snapshot{SelectedMeme: "doge_kabosu.jpg"}},
	}
}

func TestReferenceAnswersPass(t *testing.T) {
	v := NewRuleSet()
	for stage, a := range answers() {
		ref, ok := Reference(stage)
		require.True(t, ok)
		res := v.Validate(stage, a.input, ref, a.snap)
		assert.True(t, res.Passed, "stage %d should accept %q (%s)", stage, a.input, res.Message)
	}
}

func TestSingleCharacterMutationsFail(t *testing.T) {
	v := NewRuleSet()
	for stage, a := range answers() {
		ref, _ := Reference(stage)
		runes := []rune(a.input)
		for i := range runes {
			mutated := append([]rune(nil), runes...)
			mutated[i] = '#'
			if runes[i] == '#' {
				mutated[i] = '@'
			}
			res := v.Validate(stage, string(mutated), ref, a.snap)
			assert.False(t, res.Passed, "stage %d accepted mutation %q", stage, string(mutated))
		}
	}
}

func TestHandshakeHints(t *testing.T) {
	v := NewRuleSet()
	ref, _ := Reference(1)

	res := v.Validate(1, "  Initiate_Handshake ", ref, Snapshot{})
	assert.False(t, res.Passed)
	assert.Equal(t, "Eh? Why so formal? Needs the digital sign-off!", res.Message)

	res = v.Validate(1, "🤝", ref, Snapshot{})
	assert.False(t, res.Passed)
	assert.Contains(t, res.Message, "Use the code.")

	res = v.Validate(1, "nope", ref, Snapshot{})
	assert.Equal(t, Result{}, res)
}

func TestLeetspeakIsCaseInsensitive(t *testing.T) {
	v := NewRuleSet()
	assert.True(t, v.Validate(2, "C4L1BR4T3_SYST3M", "CALIBRATE_SYSTEM", Snapshot{}).Passed)
	assert.False(t, v.Validate(2, "CALIBRATE_SYSTEM", "CALIBRATE_SYSTEM", Snapshot{}).Passed)
}

func TestDecimalCodesCollapseWhitespace(t *testing.T) {
	v := NewRuleSet()
	assert.Equal(t, "80 85 82 71 69", DecimalCodes("purge"))
	assert.True(t, v.Validate(3, "  80   85 82\t71 69 ", "PURGE", Snapshot{}).Passed)
}

func TestHistoryReplayRejectsReorderAndOmission(t *testing.T) {
	v := NewRuleSet()
	snap := Snapshot{History: []string{"one", "two", "three"}}
	assert.True(t, v.Validate(4, " one two three ", "VERIFY_LOG_INTEGRITY", snap).Passed)
	assert.False(t, v.Validate(4, "two one three", "VERIFY_LOG_INTEGRITY", snap).Passed)
	assert.False(t, v.Validate(4, "one three", "VERIFY_LOG_INTEGRITY", snap).Passed)
	assert.False(t, v.Validate(4, "one  two three", "VERIFY_LOG_INTEGRITY", snap).Passed)
}

func TestNoBackspaceHints(t *testing.T) {
	v := NewRuleSet()
	ref := "AUTHORIZE_ADMIN_OVERRIDE"

	res := v.Validate(6, "authorize_admin_override", ref, Snapshot{})
	assert.False(t, res.Passed)
	assert.Contains(t, res.Message, "Case-sensitive")

	res = v.Validate(6, "AUTHORIZE_ADMIN_OVERRIDX", ref, Snapshot{})
	assert.Contains(t, res.Message, "So close!")

	res = v.Validate(6, "AUTHORIZE_ADMIN_OVERRI", ref, Snapshot{})
	assert.Contains(t, res.Message, "So close!")

	res = v.Validate(6, "AUTHORIZE", ref, Snapshot{})
	assert.Equal(t, "...Input mismatch. Precision is a virtue I require, but you clearly lack. Try again.", res.Message)
}

func TestAnchorsIgnoreReference(t *testing.T) {
	v := NewRuleSet()
	assert.True(t, v.Validate(7, " set_terminal_anchors ", "SOMETHING_ELSE", Snapshot{}).Passed)
}

func TestChecksumRule(t *testing.T) {
	v := NewRuleSet()
	ref, _ := Reference(8)
	snap := Snapshot{History: []string{"abc", "x", "x", "x", "de"}}

	assert.True(t, v.Validate(8, "RUN_POWER_DIAGNOSTIC 47", ref, snap).Passed)
	assert.True(t, v.Validate(8, "run_power_diagnostic 47", ref, snap).Passed)

	res := v.Validate(8, "RUN_POWER_DIAGNOSTIC 46", ref, snap)
	assert.False(t, res.Passed)
	assert.Contains(t, res.Message, "Expected sum: 47")
	assert.Contains(t, res.Message, "You provided: 46")

	res = v.Validate(8, "RUN_POWER_DIAGNOSTIC", ref, snap)
	assert.Equal(t, "...Invalid format. Command should be 'RUN_POWER_DIAGNOSTIC <checksum>'.", res.Message)

	res = v.Validate(8, "RUN_POWER_DIAGNOSTIC forty", ref, snap)
	assert.Equal(t, "...Checksum must be a number.", res.Message)

	res = v.Validate(8, "RUN_POWER_DIAGNOSTIC 47abc", ref, snap)
	assert.False(t, res.Passed)
	assert.Equal(t, "...Checksum must be a number.", res.Message)

	res = v.Validate(8, "RUN_POWER_DIAGNOSTIC 47", ref, Snapshot{History: []string{"a"}})
	assert.Equal(t, "...Error: Insufficient command history for checksum calculation!", res.Message)
}

func TestPayloadNeedsSelectedMeme(t *testing.T) {
	v := NewRuleSet()
	res := v.Validate(9, "LAUNCH_PAYLOAD ", "LAUNCH_PAYLOAD", Snapshot{})
	assert.Equal(t, Result{}, res)
}

func TestUnknownStageFails(t *testing.T) {
	v := NewRuleSet()
	assert.Equal(t, Result{}, v.Validate(12, "anything", "", Snapshot{}))
	_, ok := Reference(0)
	assert.False(t, ok)
}
