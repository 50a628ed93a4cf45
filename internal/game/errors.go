package game

import "errors"

var (
	// ErrMatchNotFound is returned when a referenced match no longer exists.
	ErrMatchNotFound = errors.New("match not found")

	// ErrPlayerNotFound is returned when an action names a player without a seat.
	ErrPlayerNotFound = errors.New("player not seated in match")
)

// AdmissionError rejects a join before a seat is created.
type AdmissionError struct {
	Reason string
}

func (e *AdmissionError) Error() string { return "cannot join match: " + e.Reason }

// IllegalActionError rejects a player action. Match state is unchanged.
type IllegalActionError struct {
	Reason string
}

func (e *IllegalActionError) Error() string { return e.Reason }

func illegal(reason string) error { return &IllegalActionError{Reason: reason} }

// Reasons reported to players.
const (
	ReasonNotYourTurn       = "not your turn"
	ReasonCardNotInHand     = "card not in hand"
	ReasonCardNotAllowed    = "card not allowed in this phase"
	ReasonInvalidCard       = "invalid card"
	ReasonNotPlaying        = "match is not in play"
	ReasonNotTrickWinner    = "only the team that just won a trick can do that"
	ReasonTrickInProgress   = "a trick is already in progress"
	ReasonNoCanto           = "no king and knave of an unannounced suit in hand"
	ReasonCantoUsed         = "announcement already made this trick"
	ReasonArrastre          = "not allowed once the stock is exhausted"
	ReasonNoTrumpSeven      = "you do not hold the seven of trumps"
	ReasonPauseRequested    = "pause already requested"
	ReasonNoPauseRequest    = "no pending pause request"
	ReasonUnknownAction     = "unknown action"
	ReasonMatchFull         = "match is full"
	ReasonNotFriend         = "match is restricted to friends of seated players"
	ReasonAlreadyStarted    = "match already started"
	ReasonFriendCheckFailed = "could not verify friendship"
	ReasonMatchClosed       = "match is closed"
)
