package managers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"silverrock/internal/interfaces"
	"silverrock/internal/schemas"
	"silverrock/internal/utils"
)

const matchingColumns = "matching_id, sender_id, receiver_id, success, created_at"

var matchingTransitions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "matching_transitions_total",
		Help: "Total number of matching request state transitions",
	},
	[]string{"transition"},
)

// MatchingMgr owns the lifecycle of matching requests. A request is created pending,
// the receiver either accepts it, which confirms the match for good, or rejects it,
// which deletes it.
type MatchingMgr interface {
	SubmitRequest(ctx context.Context, senderId, receiverId int64) (*schemas.MatchingRequest, error)
	AcceptRequest(ctx context.Context, callerId, requestId int64) (*schemas.MatchingRequest, error)
	RejectRequest(ctx context.Context, callerId, requestId int64) error
	ListReceivedRequests(ctx context.Context, callerId int64) ([]*schemas.UserProfile, error)
	ListConfirmedFriends(ctx context.Context, callerId int64) ([]*schemas.UserProfile, error)
}

type MatchingManager struct {
	pool      interfaces.PgxPoolIface
	directory UserDirectory
	mailMgr   MailMgr
}

func NewMatchingManager(databaseMgr DatabaseMgr, directory UserDirectory, mailMgr MailMgr) *MatchingManager {
	return &MatchingManager{
		pool:      databaseMgr.GetPool(),
		directory: directory,
		mailMgr:   mailMgr,
	}
}

// SubmitRequest creates a pending request from sender to receiver. The sender must be
// the authenticated caller, the receiver an existing user other than the sender.
func (mm *MatchingManager) SubmitRequest(ctx context.Context, senderId, receiverId int64) (*schemas.MatchingRequest, error) {
	if senderId == receiverId {
		return nil, ErrSelfMatching
	}

	request := &schemas.MatchingRequest{SenderID: senderId, ReceiverID: receiverId}
	err := utils.WithTransaction(ctx, mm.pool, func(tx pgx.Tx) error {
		if _, err := mm.directory.FindById(ctx, tx, receiverId); err != nil {
			return err
		}

		queryString := "INSERT INTO matching_requests (sender_id, receiver_id) VALUES ($1, $2) RETURNING matching_id, success, created_at"
		err := tx.QueryRow(ctx, queryString, senderId, receiverId).Scan(&request.ID, &request.Success, &request.CreatedAt)
		if err != nil {
			return mapMatchingInsertError(err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	matchingTransitions.WithLabelValues("submitted").Inc()
	utils.LogMessageWithFields(ctx, "info", fmt.Sprintf("Matching request %d submitted by user %d to user %d", request.ID, senderId, receiverId))

	mm.notify(ctx, receiverId, senderId, mm.mailMgr.SendMatchingRequestMail)
	return request, nil
}

// AcceptRequest confirms a request addressed to the caller. Accepting an already
// confirmed request succeeds without changing it. Requests that do not exist or are
// addressed to someone else are reported as ErrMatchingNotFound.
func (mm *MatchingManager) AcceptRequest(ctx context.Context, callerId, requestId int64) (*schemas.MatchingRequest, error) {
	var request *schemas.MatchingRequest
	var confirmed bool

	err := utils.WithTransaction(ctx, mm.pool, func(tx pgx.Tx) error {
		var err error
		request, err = lockReceivedRequest(ctx, tx, callerId, requestId)
		if err != nil {
			return err
		}

		if !request.Pending() {
			return nil
		}

		if _, err = tx.Exec(ctx, "UPDATE matching_requests SET success = true WHERE matching_id = $1", requestId); err != nil {
			return fmt.Errorf("accept matching request %d: %w", requestId, err)
		}

		request.Success = true
		confirmed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !confirmed {
		utils.LogMessageWithFields(ctx, "debug", fmt.Sprintf("Matching request %d was already accepted", requestId))
		return request, nil
	}

	matchingTransitions.WithLabelValues("accepted").Inc()
	utils.LogMessageWithFields(ctx, "info", fmt.Sprintf("Matching request %d accepted by user %d", requestId, callerId))

	mm.notify(ctx, request.SenderID, request.ReceiverID, mm.mailMgr.SendMatchConfirmedMail)
	return request, nil
}

// RejectRequest deletes a pending request addressed to the caller. Confirmed
// requests cannot be rejected anymore and are reported as ErrMatchingNotFound.
func (mm *MatchingManager) RejectRequest(ctx context.Context, callerId, requestId int64) error {
	err := utils.WithTransaction(ctx, mm.pool, func(tx pgx.Tx) error {
		request, err := lockReceivedRequest(ctx, tx, callerId, requestId)
		if err != nil {
			return err
		}

		if !request.Pending() {
			return ErrMatchingNotFound
		}

		if _, err = tx.Exec(ctx, "DELETE FROM matching_requests WHERE matching_id = $1", requestId); err != nil {
			return fmt.Errorf("reject matching request %d: %w", requestId, err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	matchingTransitions.WithLabelValues("rejected").Inc()
	utils.LogMessageWithFields(ctx, "info", fmt.Sprintf("Matching request %d rejected by user %d", requestId, callerId))
	return nil
}

// ListReceivedRequests returns the profiles of everyone who sent the caller a request,
// pending or confirmed, in the order the requests were made.
func (mm *MatchingManager) ListReceivedRequests(ctx context.Context, callerId int64) ([]*schemas.UserProfile, error) {
	queryString := "SELECT sender_id FROM matching_requests WHERE receiver_id = $1 ORDER BY matching_id"
	return mm.listSenderProfiles(ctx, queryString, callerId)
}

// ListConfirmedFriends returns the profiles of the senders of all accepted requests
// addressed to the caller, in the order the requests were made.
func (mm *MatchingManager) ListConfirmedFriends(ctx context.Context, callerId int64) ([]*schemas.UserProfile, error) {
	queryString := "SELECT sender_id FROM matching_requests WHERE receiver_id = $1 AND success = true ORDER BY matching_id"
	return mm.listSenderProfiles(ctx, queryString, callerId)
}

func (mm *MatchingManager) listSenderProfiles(ctx context.Context, queryString string, callerId int64) ([]*schemas.UserProfile, error) {
	rows, err := mm.pool.Query(ctx, queryString, callerId)
	if err != nil {
		return nil, fmt.Errorf("list matching requests of user %d: %w", callerId, err)
	}

	senderIds, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("read matching requests of user %d: %w", callerId, err)
	}

	return mm.directory.FindProfiles(ctx, mm.pool, senderIds)
}

// notify mails recipientId about an event caused by actorId. Mail is best effort,
// failures are logged and never reach the caller.
func (mm *MatchingManager) notify(ctx context.Context, recipientId, actorId int64, send func(email, recipientNickname, actorNickname string) error) {
	if !mm.mailMgr.Enabled() {
		return
	}

	recipient, err := mm.directory.FindById(ctx, mm.pool, recipientId)
	if err != nil {
		utils.LogMessageWithFieldsAndError(ctx, "warn", "Error loading mail recipient", err)
		return
	}
	if recipient.Email == "" {
		return
	}

	actor, err := mm.directory.FindById(ctx, mm.pool, actorId)
	if err != nil {
		utils.LogMessageWithFieldsAndError(ctx, "warn", "Error loading mail actor", err)
		return
	}

	if err := send(recipient.Email, recipient.Nickname, actor.Nickname); err != nil {
		utils.LogMessageWithFieldsAndError(ctx, "warn", "Error sending matching mail", err)
	}
}

// lockReceivedRequest loads the request and locks its row until the transaction ends.
// Concurrent accepts and rejects of the same request therefore run one after another.
func lockReceivedRequest(ctx context.Context, q interfaces.Querier, callerId, requestId int64) (*schemas.MatchingRequest, error) {
	queryString := "SELECT " + matchingColumns + " FROM matching_requests WHERE matching_id = $1 FOR UPDATE"

	request := &schemas.MatchingRequest{}
	err := q.QueryRow(ctx, queryString, requestId).Scan(&request.ID, &request.SenderID, &request.ReceiverID,
		&request.Success, &request.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMatchingNotFound
		}
		return nil, fmt.Errorf("load matching request %d: %w", requestId, err)
	}

	if request.ReceiverID != callerId {
		return nil, ErrMatchingNotFound
	}

	return request, nil
}

func mapMatchingInsertError(err error) error {
	code, _, ok := pgErrorCode(err)
	if ok {
		switch code {
		case uniqueViolationCode:
			return ErrMatchingAlreadyRequested
		case foreignKeyViolationCode:
			return ErrUserNotFound
		case checkViolationCode:
			return ErrSelfMatching
		}
	}

	return fmt.Errorf("insert matching request: %w", err)
}
