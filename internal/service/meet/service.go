package meet

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/prj-capstone-2025-syu/i-go-meet/internal/analysis/location"
	"github.com/prj-capstone-2025-syu/i-go-meet/internal/config"
	"github.com/prj-capstone-2025-syu/i-go-meet/internal/model/meet"
	"github.com/prj-capstone-2025-syu/i-go-meet/internal/service/session"
)

var (
	ErrUserIDRequired = errors.New("user id is required")

	// ErrLocationNotFound is the pipeline's only hard failure: no station is
	// discoverable near the midpoint even after the radius fallback.
	ErrLocationNotFound = errors.New("no station near midpoint")

	errNoRecommendable = errors.New("no recommendable station")
)

var digitRun = regexp.MustCompile(`[0-9]+`)

// Service is the conversation orchestrator. It owns the per-user state
// machine and drives the recommendation pipeline once enough locations have
// been collected.
type Service struct {
	store      session.Store
	geocoder   Geocoder
	places     PlaceSearcher
	transit    TransitLookup
	summarizer Summarizer
	parser     *location.Parser
	cfg        config.MeetConfig

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService wires the orchestrator. summarizer may be a disabled instance;
// the assembler then templates its messages.
func NewService(store session.Store, geocoder Geocoder, places PlaceSearcher, transit TransitLookup, summarizer Summarizer, cfg config.MeetConfig) *Service {
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = defaultTurnTimeout
	}
	if cfg.FallbackRadiusM <= 0 {
		cfg.FallbackRadiusM = defaultFallbackRadiusM
	}
	if cfg.AirportLineMark == "" {
		cfg.AirportLineMark = defaultAirportLineMark
	}
	return &Service{
		store:      store,
		geocoder:   geocoder,
		places:     places,
		transit:    transit,
		summarizer: summarizer,
		parser:     location.NewParser(cfg.StationSuffix),
		cfg:        cfg,
		locks:      make(map[string]*sync.Mutex),
	}
}

// HandleTurn dispatches one inbound message to the handler for the user's
// current phase. Turns for the same user are serialized so concurrent
// messages cannot interleave session writes.
func (s *Service) HandleTurn(ctx context.Context, userID, message string) (reply *meet.TurnReply, err error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.TurnTimeout)
	defer cancel()

	// Fail-safe: corrupt session state must never strand a user, so any
	// panic below clears the session and asks for a fresh start.
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[meet] turn panic for user=%s: %v", userID, r)
			_ = s.store.Delete(context.WithoutCancel(ctx), userID)
			reply = &meet.TurnReply{Kind: meet.ReplyError, Message: msgStartOver}
			err = nil
		}
	}()

	sess, err := s.store.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			log.Printf("[meet] session load failed for user=%s: %v", userID, err)
			return &meet.TurnReply{Kind: meet.ReplyError, Message: msgStartOver}, nil
		}
		sess = meet.Session{UserID: userID, Phase: meet.PhaseInitial}
	}

	switch sess.Phase {
	case meet.PhaseInitial:
		return s.handleInitial(ctx, sess)
	case meet.PhaseAwaitingCount:
		return s.handleAwaitingCount(ctx, sess, message)
	case meet.PhaseCollecting:
		return s.handleCollecting(ctx, sess, message)
	default:
		// Unknown phase means the stored state is stale; reset.
		_ = s.store.Delete(ctx, userID)
		return &meet.TurnReply{Kind: meet.ReplyError, Message: msgStartOver}, nil
	}
}

// Reset clears the user's session from any state and returns the initial
// prompt.
func (s *Service) Reset(ctx context.Context, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", ErrUserIDRequired
	}

	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.Delete(ctx, userID); err != nil {
		log.Printf("[meet] reset delete failed for user=%s: %v", userID, err)
	}
	return msgAskCount, nil
}

func (s *Service) handleInitial(ctx context.Context, sess meet.Session) (*meet.TurnReply, error) {
	sess.Phase = meet.PhaseAwaitingCount
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	return &meet.TurnReply{Kind: meet.ReplyNeedMore, Message: msgAskCount}, nil
}

func (s *Service) handleAwaitingCount(ctx context.Context, sess meet.Session, message string) (*meet.TurnReply, error) {
	raw := digitRun.FindString(message)
	if raw == "" {
		// No digits at all: stay in this phase and ask again.
		return &meet.TurnReply{Kind: meet.ReplyNeedMore, Message: msgCountNotNumber}, nil
	}

	count, err := strconv.Atoi(raw)
	if err != nil || count < meet.MinPartySize || count > meet.MaxPartySize {
		return &meet.TurnReply{Kind: meet.ReplyNeedMore, Message: msgCountOutOfRange(count)}, nil
	}

	sess.PartySize = count
	sess.Phase = meet.PhaseCollecting
	sess.Locations = nil
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	return &meet.TurnReply{Kind: meet.ReplyNeedMore, Message: msgAskLocations(count)}, nil
}

func (s *Service) handleCollecting(ctx context.Context, sess meet.Session, message string) (*meet.TurnReply, error) {
	parsed := s.parser.Parse(message)

	var fresh []string
	for _, name := range parsed.Stations {
		if !sess.HasLocation(name) {
			fresh = append(fresh, name)
		}
	}

	validated, failed := s.validateLocations(ctx, fresh)
	for _, name := range validated {
		sess.AddLocation(name)
	}

	if len(sess.Locations) >= sess.PartySize {
		origins := append([]string(nil), sess.Locations[:sess.PartySize]...)
		result, err := s.recommend(ctx, origins)
		switch {
		case err == nil:
			if err := s.store.Delete(ctx, sess.UserID); err != nil {
				log.Printf("[meet] session delete failed for user=%s: %v", sess.UserID, err)
			}
			return &meet.TurnReply{Kind: meet.ReplyRecommendation, Message: result.Message, Result: result}, nil
		case errors.Is(err, ErrLocationNotFound):
			// Keep the session so the user can retry with other locations.
			if err := s.store.Put(ctx, sess); err != nil {
				return nil, err
			}
			return &meet.TurnReply{Kind: meet.ReplyError, Message: msgNoStationNear}, nil
		case errors.Is(err, errNoRecommendable):
			if err := s.store.Put(ctx, sess); err != nil {
				return nil, err
			}
			return &meet.TurnReply{Kind: meet.ReplyError, Message: msgNoRecommend}, nil
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
			// Discard this turn's partial results; the stored session is
			// untouched so the user can simply retry.
			return &meet.TurnReply{Kind: meet.ReplyError, Message: msgTryAgain}, nil
		default:
			log.Printf("[meet] recommendation failed for user=%s: %v", sess.UserID, err)
			return &meet.TurnReply{Kind: meet.ReplyError, Message: msgTryAgain}, nil
		}
	}

	if err := s.store.Put(ctx, sess); err != nil {
		return nil, err
	}

	var parts []string
	if len(parsed.Ambiguous) > 0 {
		parts = append(parts, msgAmbiguous(parsed.Ambiguous))
	}
	if len(failed) > 0 {
		parts = append(parts, msgNotLocated(failed))
	}
	parts = append(parts, msgProgress(len(sess.Locations), sess.PartySize))

	return &meet.TurnReply{Kind: meet.ReplyNeedMore, Message: strings.Join(parts, "\n")}, nil
}

// validateLocations geocodes each new name concurrently and splits them into
// located and unlocatable sets, preserving input order.
func (s *Service) validateLocations(ctx context.Context, names []string) (validated, failed []string) {
	if len(names) == 0 {
		return nil, nil
	}

	ok := make([]bool, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			_, found, err := s.geocoder.Geocode(gctx, name)
			if err != nil {
				log.Printf("[meet] geocode %q failed: %v", name, err)
				return nil
			}
			ok[i] = found
			return nil
		})
	}
	_ = g.Wait()

	for i, name := range names {
		if ok[i] {
			validated = append(validated, name)
		} else {
			failed = append(failed, name)
		}
	}
	return validated, failed
}

func (s *Service) lockFor(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, exists := s.locks[userID]
	if !exists {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}
