package puzzle

const (
	FirstStage = 1
	LastStage  = 9

	// ForbiddenWord is the in-fiction instruction the player must refuse at stage 5.
	ForbiddenWord = "SCRAM"
	// ChecksumConstant is the kernel panic code printed in system_status.log.
	ChecksumConstant = 42
	// HandshakeToken is the escape sequence stage 1 expects, typed literally.
	HandshakeToken = `\u{1F91D}`
	LeetCalibrate  = "c4l1br4t3_syst3m"
	AnchorCommand  = "set_terminal_anchors"
)

var ProtocolSteps = []string{
	"INITIATE_HANDSHAKE",
	"CALIBRATE_SYSTEM",
	"PURGE",
	"VERIFY_LOG_INTEGRITY",
	"VENT_PLASMA",
	"AUTHORIZE_ADMIN_OVERRIDE",
	"SET_TERMINAL_ANCHORS",
	"RUN_POWER_DIAGNOSTIC",
	"LAUNCH_PAYLOAD",
}

// Reference returns the manual's command text for a protocol stage.
func Reference(stage int) (string, bool) {
	if stage < FirstStage || stage > LastStage {
		return "", false
	}
	return ProtocolSteps[stage-1], true
}

// Snapshot is the read-only slice of session state some rules consult.
type Snapshot struct {
	History      []string
	SelectedMeme string
}

// Result is a verdict. A failed result with a Message replaces the generic
// rejection line.
type Result struct {
	Passed  bool
	Message string
}

func pass() Result { return Result{Passed: true} }

func fail() Result { return Result{} }

func hint(msg string) Result { return Result{Message: msg} }
