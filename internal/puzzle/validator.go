package puzzle

import (
	"fmt"
	"strconv"
	"strings"
)

type ruleFunc func(input, reference string, snap Snapshot) Result

type Validator interface {
	Validate(stage int, input, reference string, snap Snapshot) Result
}

type RuleSet struct {
	registry map[int]ruleFunc
}

func NewRuleSet() *RuleSet {
	r := &RuleSet{registry: map[int]ruleFunc{}}
	r.registry[1] = ruleHandshake
	r.registry[2] = ruleLeetspeak
	r.registry[3] = ruleDecimalCodes
	r.registry[4] = ruleHistoryReplay
	r.registry[5] = ruleCaseless
	r.registry[6] = ruleNoBackspace
	r.registry[7] = ruleAnchors
	r.registry[8] = ruleChecksum
	r.registry[9] = rulePayload
	return r
}

func (r *RuleSet) Validate(stage int, input, reference string, snap Snapshot) Result {
	rule, ok := r.registry[stage]
	if !ok {
		return fail()
	}
	return rule(input, reference, snap)
}

func ruleHandshake(input, _ string, _ Snapshot) Result {
	cleaned := strings.TrimSpace(input)
	if strings.EqualFold(cleaned, "initiate_handshake") {
		return hint("Eh? Why so formal? Needs the digital sign-off!")
	}
	if cleaned == "\U0001F91D" {
		return hint("Hey, so I couldn't map that symbol to what I have... could you, idk, make it legible for me? Use the code.")
	}
	if cleaned == HandshakeToken {
		return pass()
	}
	return fail()
}

func ruleLeetspeak(input, _ string, _ Snapshot) Result {
	if strings.ToLower(input) == LeetCalibrate {
		return pass()
	}
	return fail()
}

func ruleDecimalCodes(input, reference string, _ Snapshot) Result {
	if strings.Join(strings.Fields(input), " ") == DecimalCodes(reference) {
		return pass()
	}
	return fail()
}

// DecimalCodes renders the uppercased text as space separated character codes.
func DecimalCodes(text string) string {
	upper := strings.ToUpper(text)
	codes := make([]string, 0, len(upper))
	for _, r := range upper {
		codes = append(codes, strconv.Itoa(int(r)))
	}
	return strings.Join(codes, " ")
}

func ruleHistoryReplay(input, _ string, snap Snapshot) Result {
	if strings.TrimSpace(input) == strings.Join(snap.History, " ") {
		return pass()
	}
	return fail()
}

func ruleCaseless(input, reference string, _ Snapshot) Result {
	if strings.ToUpper(strings.TrimSpace(input)) == strings.ToUpper(reference) {
		return pass()
	}
	return fail()
}

func ruleNoBackspace(input, reference string, _ Snapshot) Result {
	cleaned := strings.TrimSpace(input)
	if cleaned == reference {
		return pass()
	}
	if strings.EqualFold(cleaned, reference) {
		return hint("Case-sensitive, Runner. Details matter when you can't fix your mistakes. (¬_¬)")
	}
	if positionalMismatches(cleaned, reference) <= 3 {
		return hint("So close! Feeling that missing backspace key yet? Painful, isn't it? (⌐■_■)")
	}
	return hint("...Input mismatch. Precision is a virtue I require, but you clearly lack. Try again.")
}

// positionalMismatches counts positions up to the longer length where the two
// strings differ, counting missing characters as mismatches.
func positionalMismatches(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	n := max(len(ra), len(rb))
	diff := 0
	for i := 0; i < n; i++ {
		if i >= len(ra) || i >= len(rb) || ra[i] != rb[i] {
			diff++
		}
	}
	return diff
}

func ruleAnchors(input, _ string, _ Snapshot) Result {
	if strings.ToLower(strings.TrimSpace(input)) == AnchorCommand {
		return pass()
	}
	return fail()
}

func ruleChecksum(input, reference string, snap Snapshot) Result {
	trimmed := strings.TrimSpace(input)
	prefix := strings.ToLower(reference) + " "
	if !strings.HasPrefix(strings.ToLower(trimmed), prefix) {
		return hint(fmt.Sprintf("...Invalid format. Command should be '%s <checksum>'.", reference))
	}
	parts := strings.Split(trimmed, " ")
	// Atoi is strict: "62abc" is a format error, never read as 62.
	provided, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return hint("...Checksum must be a number.")
	}
	expected, ok := Checksum(snap.History)
	if !ok {
		return hint("...Error: Insufficient command history for checksum calculation!")
	}
	if provided != expected {
		return hint(fmt.Sprintf("...DIAGNOSTIC FAILED. Checksum mismatch. Expected sum: %d. You provided: %d. ಠ_ಠ", expected, provided))
	}
	return pass()
}

// Checksum is the diagnostic sum of the first and fifth accepted commands plus
// the kernel panic code.
func Checksum(history []string) (int, bool) {
	if len(history) < 5 {
		return 0, false
	}
	return len([]rune(history[0])) + len([]rune(history[4])) + ChecksumConstant, true
}

func rulePayload(input, reference string, snap Snapshot) Result {
	if snap.SelectedMeme == "" {
		return fail()
	}
	if strings.TrimSpace(input) == reference+" "+snap.SelectedMeme {
		return pass()
	}
	return fail()
}
