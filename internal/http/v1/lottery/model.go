package lottery

import (
	"github.com/freebies-japan/api/internal/platform/timeutil"
)

// Result is a committed lottery draw. The donor and admins can replay it from
// the seed and the sorted participant list.
type Result struct {
	ItemID           string        `json:"itemId"             doc:"Drawn item"                                    example:"k3Jd9sQ2"`
	Winners          []string      `json:"winners,omitempty"  doc:"Winning user IDs in draw order, donor and admins only"`
	WinnerCount      int           `json:"winnerCount"        doc:"Number of winners"                             example:"1"`
	Selected         *bool         `json:"selected,omitempty" doc:"Whether the signed-in caller won"              example:"false"`
	ParticipantCount int           `json:"participantCount"   doc:"Number of pending requests at draw time"       example:"12"`
	Seed             string        `json:"seed"               doc:"Decimal PRNG seed used for the shuffle"        example:"1234567890"`
	DrawnAt          timeutil.Time `json:"drawnAt"            doc:"Commit timestamp"                              example:"2024-02-01T03:00:00.000Z"`
	DrawnBy          string        `json:"drawnBy"            doc:"User who triggered the draw, or system"        example:"system"`
	Replayed         bool          `json:"replayed"           doc:"True when the item had already been drawn"     example:"false"`
}
