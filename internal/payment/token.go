package payment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Namespace tags every reference token this app issues. Webhooks carrying a
// token from any other namespace are rejected before touching the store.
const Namespace = "yuto"

const refDelimiter = "--"

// Common errors
var (
	ErrInvalidTxRef     = errors.New("malformed reference token")
	ErrForeignNamespace = errors.New("reference token from a foreign namespace")
)

// TxRef correlates a gateway transaction back to a group/member pair. It is
// generated at charge initiation and parsed again by the webhook handler.
type TxRef struct {
	GroupID uuid.UUID
	UserID  uuid.UUID
}

// NewTxRef builds a reference token: "yuto--{groupId}--{userId}--{epochMillis}"
func NewTxRef(groupID, userID uuid.UUID, at time.Time) string {
	return strings.Join([]string{
		Namespace,
		groupID.String(),
		userID.String(),
		strconv.FormatInt(at.UnixMilli(), 10),
	}, refDelimiter)
}

// ParseTxRef decodes a reference token. The token must split into at least
// three segments and the first must be the app namespace; the group and user
// segments must be UUIDs.
func ParseTxRef(token string) (TxRef, error) {
	parts := strings.Split(token, refDelimiter)
	if len(parts) < 3 {
		return TxRef{}, ErrInvalidTxRef
	}
	if parts[0] != Namespace {
		return TxRef{}, ErrForeignNamespace
	}

	groupID, err := uuid.Parse(parts[1])
	if err != nil {
		return TxRef{}, fmt.Errorf("%w: bad group id", ErrInvalidTxRef)
	}
	userID, err := uuid.Parse(parts[2])
	if err != nil {
		return TxRef{}, fmt.Errorf("%w: bad user id", ErrInvalidTxRef)
	}

	return TxRef{GroupID: groupID, UserID: userID}, nil
}
