package game

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const maxNicknameLength = 24

// registry owns player identities, their connection binding and resume
// secrets. Only the session actor touches it.
type registry struct {
	players    []*player
	byId       map[string]*player
	byConn     map[string]*player
	tokens     TokenManager
	hasher     SecretHasher
	maxPlayers int
}

func newRegistry(tokens TokenManager, hasher SecretHasher, maxPlayers int) *registry {
	return &registry{
		byId:       map[string]*player{},
		byConn:     map[string]*player{},
		tokens:     tokens,
		hasher:     hasher,
		maxPlayers: maxPlayers,
	}
}

func (r *registry) get(id string) (*player, bool) {
	p, ok := r.byId[id]
	return p, ok
}

func (r *registry) byConnection(connId string) (*player, bool) {
	p, ok := r.byConn[connId]
	return p, ok
}

func (r *registry) all() []*player {
	return r.players
}

// active keeps registry order.
func (r *registry) active() []*player {
	res := make([]*player, 0, len(r.players))
	for _, p := range r.players {
		if p.isActive() {
			res = append(res, p)
		}
	}
	return res
}

func (r *registry) nicknameTaken(nickname string) bool {
	for _, p := range r.players {
		if strings.EqualFold(p.nickname, nickname) {
			return true
		}
	}
	return false
}

// join returns the new player and the plain resume token, which is never kept.
func (r *registry) join(connId, nickname, characterId string, uses map[string]int, now time.Time) (*player, string, error) {
	nickname = strings.TrimSpace(nickname)
	switch {
	case nickname == "":
		return nil, "", ErrNicknameRequired
	case utf8.RuneCountInString(nickname) > maxNicknameLength:
		return nil, "", ErrNicknameTooLong
	}
	if _, bound := r.byConn[connId]; bound {
		return nil, "", ErrAlreadyJoined
	}
	if r.nicknameTaken(nickname) {
		return nil, "", ErrDuplicateNickname
	}
	if len(r.players) >= r.maxPlayers {
		return nil, "", ErrLobbyFull
	}

	id := uuid.NewString()
	token, err := r.tokens.Generate(id, now)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrUnexpected, err)
	}
	hash, err := r.hasher.Hash(token)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrUnexpected, err)
	}

	p := &player{
		id:              id,
		nickname:        nickname,
		characterId:     characterId,
		status:          StatusActive,
		resumeTokenHash: hash,
		connId:          connId,
		joinedAt:        now,
		lastSeenAt:      now,
		abilityUses:     uses,
	}
	r.players = append(r.players, p)
	r.byId[id] = p
	r.byConn[connId] = p
	return p, token, nil
}

// resume rebinds a player to connId. It returns the connection that was
// bound before, if it was a different one.
func (r *registry) resume(connId, playerId, token string, now time.Time) (*player, string, error) {
	p, ok := r.byId[playerId]
	if !ok {
		return nil, "", ErrUnknownPlayer
	}
	if other, bound := r.byConn[connId]; bound && other != p {
		return nil, "", ErrAlreadyJoined
	}
	subject, err := r.tokens.Verify(token)
	if err != nil || subject != playerId {
		return nil, "", ErrInvalidResumeToken
	}
	match, err := r.hasher.Compare(p.resumeTokenHash, token)
	if err != nil || !match {
		return nil, "", ErrInvalidResumeToken
	}

	replaced := ""
	if p.connId != "" && p.connId != connId {
		replaced = p.connId
		delete(r.byConn, replaced)
	}
	p.connId = connId
	r.byConn[connId] = p
	p.status = StatusActive
	p.lastSeenAt = now
	p.evictAt = time.Time{}
	return p, replaced, nil
}

// disconnect only affects the player currently bound to connId.
func (r *registry) disconnect(connId string, now time.Time, grace time.Duration) (*player, bool) {
	p, ok := r.byConn[connId]
	if !ok {
		return nil, false
	}
	delete(r.byConn, connId)
	if p.connId != connId {
		return nil, false
	}
	p.connId = ""
	p.status = StatusInactive
	p.lastSeenAt = now
	p.evictAt = now.Add(grace)
	return p, true
}

// expire moves players whose grace period ran out to offline.
func (r *registry) expire(now time.Time) []*player {
	var res []*player
	for _, p := range r.players {
		if p.status != StatusInactive || p.evictAt.IsZero() || now.Before(p.evictAt) {
			continue
		}
		p.status = StatusOffline
		p.evictAt = time.Time{}
		res = append(res, p)
	}
	return res
}

func (r *registry) remove(id string) {
	p, ok := r.byId[id]
	if !ok {
		return
	}
	delete(r.byId, id)
	if p.connId != "" {
		delete(r.byConn, p.connId)
	}
	for i, other := range r.players {
		if other == p {
			r.players = append(r.players[:i], r.players[i+1:]...)
			break
		}
	}
}

func (r *registry) removeOffline() []*player {
	var removed []*player
	for _, p := range append([]*player(nil), r.players...) {
		if p.status == StatusOffline {
			r.remove(p.id)
			removed = append(removed, p)
		}
	}
	return removed
}
