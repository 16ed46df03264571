package offline

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mmdatafocus/warehouse_client/apiclient"
	"github.com/mmdatafocus/warehouse_client/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReplayEngine drains the offline queue against the real API once
// connectivity returns. Entries leave the queue only on a confirmed 2xx;
// failures stay queued with exponential backoff until REPLAY_MAX_ATTEMPTS
// marks them DEAD (kept, revertible via cmd/replay-dead-revert).
type ReplayEngine struct {
	DB     *gorm.DB
	API    *apiclient.Client
	Logger *logrus.Logger
	Oracle Oracle

	WorkerID string
	Interval time.Duration
	LockTTL  time.Duration
}

func NewReplayEngine(db *gorm.DB, api *apiclient.Client, logger *logrus.Logger, oracle Oracle) *ReplayEngine {
	return &ReplayEngine{
		DB:       db,
		API:      api,
		Logger:   logger,
		Oracle:   oracle,
		WorkerID: "replay-" + time.Now().Format("20060102-150405.000"),
		Interval: replayPollInterval(),
		LockTTL:  30 * time.Second,
	}
}

func replayPollInterval() time.Duration {
	if v := os.Getenv("REPLAY_POLL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return 5 * time.Second
}

type replayRetryConfig struct {
	maxAttempts int
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

func getReplayRetryConfig() replayRetryConfig {
	cfg := replayRetryConfig{
		maxAttempts: 10,
		baseBackoff: 5 * time.Second,
		maxBackoff:  10 * time.Minute,
	}
	if v := os.Getenv("REPLAY_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.maxAttempts = n
		}
	}
	if v := os.Getenv("REPLAY_BASE_BACKOFF_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.baseBackoff = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("REPLAY_MAX_BACKOFF_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.maxBackoff = time.Duration(n) * time.Second
		}
	}
	return cfg
}

func replayBackoff(attempt int, cfg replayRetryConfig) time.Duration {
	if attempt <= 0 {
		return cfg.baseBackoff
	}
	// base * 2^(attempt-1), capped.
	exp := float64(attempt - 1)
	delay := time.Duration(float64(cfg.baseBackoff) * math.Pow(2, exp))
	if delay > cfg.maxBackoff {
		return cfg.maxBackoff
	}
	return delay
}

func (e *ReplayEngine) Run(ctx context.Context) {
	if e == nil || e.DB == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if e.Oracle == nil || !e.Oracle.IsOfflineNow() {
			e.ReplayOnce(ctx)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(e.Interval):
		}
	}
}

// ReplayOnce drains every currently eligible entry in FIFO order. Entries
// are claimed one at a time so a parent's remap is visible before its
// children are considered.
func (e *ReplayEngine) ReplayOnce(ctx context.Context) (replayed int, failed int) {
	for {
		select {
		case <-ctx.Done():
			return replayed, failed
		default:
		}
		rec, err := e.claimNext(ctx)
		if err != nil || rec == nil {
			return replayed, failed
		}
		if err := e.replayOne(ctx, rec); err != nil {
			failed++
			e.markReplayFailure(ctx, rec, err)
			continue
		}
		replayed++
	}
}

// claimNext locks the oldest eligible entry. A child whose parent create is
// still in the queue is not eligible: its parent's server id is unknown, so
// replaying it would target an id the server has never issued.
//
// A PROCESSING row whose lock has passed the TTL is eligible again: it was
// claimed by a run that died mid-replay (power loss is routine on these
// devices), and nothing else will ever touch it.
func (e *ReplayEngine) claimNext(ctx context.Context) (*models.QueuedMutation, error) {
	now := time.Now().UTC()
	staleBefore := now.Add(-e.LockTTL)

	var rec models.QueuedMutation
	err := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.
			Where("(replay_status IN ? OR (replay_status = ? AND locked_at <= ?))",
				[]string{models.ReplayStatusPending, models.ReplayStatusFailed},
				models.ReplayStatusProcessing, staleBefore).
			Where("(next_replay_attempt_at IS NULL OR next_replay_attempt_at <= ?)", now).
			Where("(locked_at IS NULL OR locked_at <= ?)", staleBefore).
			Where(`(
				parent_entity_id IS NULL
				OR parent_entity_id > 0
				OR NOT EXISTS (
					SELECT 1 FROM queued_mutations p
					WHERE p.entity_id = queued_mutations.parent_entity_id
					AND p.id <> queued_mutations.id
				)
			)`).
			Order("id ASC").
			Limit(1)
		if err := q.First(&rec).Error; err != nil {
			return err
		}
		return tx.Model(&models.QueuedMutation{}).
			Where("id = ?", rec.ID).
			Updates(map[string]interface{}{
				"replay_status": models.ReplayStatusProcessing,
				"locked_at":     &now,
				"locked_by":     &e.WorkerID,
			}).Error
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (e *ReplayEngine) replayOne(ctx context.Context, rec *models.QueuedMutation) error {
	var body any
	if len(rec.Payload) > 0 {
		body = json.RawMessage(rec.Payload)
	}
	respBody, err := e.API.Do(ctx, string(rec.Method), rec.URL, body)
	if err != nil {
		return err
	}

	return e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if rec.EntityType.IsDocumentCreate() && rec.EntityId != nil {
			serverId := parseServerId(respBody)
			if serverId > 0 {
				if err := remapChildren(tx, *rec.EntityId, serverId); err != nil {
					return err
				}
			} else if e.Logger != nil {
				// The create went through but the response carried no id;
				// children of this document cannot be remapped and will go
				// DEAD after their retries run out.
				e.Logger.WithFields(logrus.Fields{
					"module":      "offline",
					"entity_type": rec.EntityType,
					"record_id":   rec.ID,
				}).Error("replayed create response had no server id")
			}
		}
		return tx.Delete(&models.QueuedMutation{}, rec.ID).Error
	})
}

// remapChildren rewrites the parent reference of still-queued child
// mutations from the local id to the confirmed server id, in the same
// transaction that removes the parent's queue entry. This is the one place
// a queued record changes after enqueue, and only its parent reference does.
func remapChildren(tx *gorm.DB, localId, serverId int64) error {
	var children []*models.QueuedMutation
	if err := tx.Where("parent_entity_id = ?", localId).Find(&children).Error; err != nil {
		return err
	}
	for _, child := range children {
		url := replaceIdSegment(child.URL, localId, serverId)
		if err := tx.Model(&models.QueuedMutation{}).
			Where("id = ?", child.ID).
			Updates(map[string]interface{}{
				"parent_entity_id": serverId,
				"url":              url,
			}).Error; err != nil {
			return err
		}
	}
	return nil
}

// replaceIdSegment swaps the first path segment equal to the local id for
// the server id. Compared by whole segment, not substring: "/-12" must
// survive a remap of -1.
func replaceIdSegment(url string, localId, serverId int64) string {
	oldSeg := strconv.FormatInt(localId, 10)
	parts := strings.Split(url, "/")
	for i, part := range parts {
		if part == oldSeg {
			parts[i] = strconv.FormatInt(serverId, 10)
			break
		}
	}
	return strings.Join(parts, "/")
}

func parseServerId(body []byte) int64 {
	var parsed struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0
	}
	return parsed.ID
}

func (e *ReplayEngine) markReplayFailure(ctx context.Context, rec *models.QueuedMutation, cause error) {
	cfg := getReplayRetryConfig()
	now := time.Now().UTC()
	errMsg := cause.Error()

	attempts := rec.ReplayAttempts + 1
	status := models.ReplayStatusFailed
	var nextAttemptAt *time.Time
	if attempts >= cfg.maxAttempts {
		status = models.ReplayStatusDead
		nextAttemptAt = nil
	} else {
		t := now.Add(replayBackoff(attempts, cfg))
		nextAttemptAt = &t
	}

	updateErr := e.DB.WithContext(ctx).Model(&models.QueuedMutation{}).
		Where("id = ?", rec.ID).
		Updates(map[string]interface{}{
			"last_replay_error":      &errMsg,
			"replay_attempts":        attempts,
			"next_replay_attempt_at": nextAttemptAt,
			"replay_status":          status,
			"locked_at":              nil,
			"locked_by":              nil,
		}).Error
	if updateErr != nil && e.Logger != nil {
		// The row stays PROCESSING under its current lock; claimNext picks
		// it up again once the lock passes the TTL, so nothing is lost,
		// but this attempt never counted toward the backoff schedule.
		e.Logger.WithFields(logrus.Fields{
			"module":    "offline",
			"record_id": rec.ID,
		}).Error("replay failure bookkeeping not written: " + updateErr.Error())
	}

	if e.Logger != nil {
		e.Logger.WithFields(logrus.Fields{
			"module":          "offline",
			"entity_type":     rec.EntityType,
			"record_id":       rec.ID,
			"replay_status":   status,
			"replay_attempts": attempts,
		}).Error("replay failed: " + errMsg)
	}
}

// RevertDeadEntries puts DEAD entries back to PENDING so the engine picks
// them up again. Used by cmd/replay-dead-revert after an operator has fixed
// whatever made them poison.
func RevertDeadEntries(ctx context.Context, db *gorm.DB) (int64, error) {
	res := db.WithContext(ctx).Model(&models.QueuedMutation{}).
		Where("replay_status = ?", models.ReplayStatusDead).
		Updates(map[string]interface{}{
			"replay_status":          models.ReplayStatusPending,
			"replay_attempts":        0,
			"next_replay_attempt_at": nil,
			"last_replay_error":      nil,
			"locked_at":              nil,
			"locked_by":              nil,
		})
	return res.RowsAffected, res.Error
}
