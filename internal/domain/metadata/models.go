// metadata contains models that hold data about data. Since ES will be the one and only
// data store option for this project, we don't even try to abstract over things like seq
// number and primary term
package metadata

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type CreatedAt time.Time
type ModifiedAt time.Time

type SeqNum uint64
type PrimaryTerm uint64

// Version is the token that identifies a specific persisted state of a
// record. Clients hand it back on writes to prove they last observed the
// current state; comparison is strict equality, never ordering.
type Version struct {
	SeqNum      SeqNum
	PrimaryTerm PrimaryTerm
}

// Token renders the Version as the opaque string that travels in the
// client version header.
func (v Version) Token() string {
	return fmt.Sprintf("%d-%d", v.PrimaryTerm, v.SeqNum)
}

// VersionFromToken parses a client-supplied version token.
//
// Returns an InvalidToken error for anything that did not come out of
// Version.Token.
func VersionFromToken(s string) (*Version, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return nil, InvalidToken{Token: s}
	}
	primaryTerm, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return nil, InvalidToken{Token: s}
	}
	seqNum, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return nil, InvalidToken{Token: s}
	}
	v := Version{
		SeqNum:      SeqNum(seqNum),
		PrimaryTerm: PrimaryTerm(primaryTerm),
	}
	return &v, nil
}

type InvalidToken struct {
	Token string
}

func (i InvalidToken) Error() string {
	return fmt.Sprintf("Not a valid version token: [%s]", i.Token)
}

type Metadata struct {
	CreatedAt  CreatedAt
	ModifiedAt ModifiedAt
	Version    Version
}
