package game

import (
	"encoding/json"
)

// Inbound events.
const (
	EventJoin              = "player:join"
	EventResume            = "player:resume"
	EventReady             = "player:ready"
	EventStartGame         = "player:startGame"
	EventVoteCategory      = "player:voteCategory"
	EventConfirmPre        = "player:confirmPreQuestion"
	EventUseAbility        = "player:useAbility"
	EventAnswer            = "player:answer"
	EventClearEventLock    = "player:clearEventLock"
	EventContinueNext      = "player:continueNextRound"
	EventMiniGameAction    = "player:miniGameAction"
	EventAdminStartGame    = "admin:startGame"
	EventAdminReset        = "admin:reset"
	EventAdminReloadData   = "admin:reloadData"
	EventAdminNext         = "admin:next"
	EventAdminPickCategory = "admin:pickCategory"
)

// Outbound events.
const (
	EventState           = "server:state"
	EventAck             = "ack"
	EventResumeOk        = "server:resume_ok"
	EventResumeFailed    = "server:resume_failed"
	EventDataReloaded    = "server:dataReloaded"
	EventBlocked         = "player:blocked"
	EventMissedRound     = "player:missedRound"
	EventAbilityFifty    = "ability:fifty"
	EventAbilityShuffle  = "ability:shuffleOptions"
	EventAbilityFreeze   = "ability:freeze"
	EventAbilityMud      = "ability:mud"
	EventAbilityDouble   = "ability:doublePoints"
	EventShieldTriggered = "ability:shieldTriggered"
	EventAbilityBlocked  = "ability:blocked"
	EventEventApplied    = "event:applied"
	EventEventShuffle    = "event:shuffleOptions"
	EventLockCleared     = "event:lockCleared"
	EventEventShielded   = "event:shielded"
)

// ClientPacket is one JSON text frame sent by a client.
type ClientPacket struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	Ack   *int64          `json:"ack,omitempty"`
}

type ServerPacket struct {
	Event string `json:"event"`
	Ack   *int64 `json:"ack,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// ClientPacketEnvelope carries a packet into the session. trusted envelopes
// come from the HTTP admin routes and have no connection.
type ClientPacketEnvelope struct {
	packet  ClientPacket
	from    Client
	trusted bool
}

func NewClientPacketEnvelope(from Client, packet ClientPacket) ClientPacketEnvelope {
	return ClientPacketEnvelope{packet: packet, from: from}
}

func encodePacket(p ServerPacket) []byte {
	data, err := json.Marshal(p)
	if err != nil {
		// Every payload is built from plain structs, so this only fires on a programming error.
		panic(err)
	}
	return data
}

func (e ClientPacketEnvelope) decode(target any) error {
	if len(e.packet.Data) == 0 {
		return ErrBadRequestFormat
	}
	if err := json.Unmarshal(e.packet.Data, target); err != nil {
		return ErrBadRequestFormat
	}
	return nil
}

type joinRequest struct {
	Nickname    string `json:"nickname"`
	CharacterId string `json:"characterId"`
}

type resumeRequest struct {
	PlayerId    string `json:"playerId"`
	ResumeToken string `json:"resumeToken"`
}

type categoryRequest struct {
	CategoryId string `json:"categoryId"`
}

type abilityRequest struct {
	AbilityId      string `json:"abilityId"`
	TargetPlayerId string `json:"targetPlayerId,omitempty"`
}

type answerRequest struct {
	OptionId string `json:"optionId"`
}

type ackResponse struct {
	Ok          bool   `json:"ok"`
	PlayerId    string `json:"playerId,omitempty"`
	ResumeToken string `json:"resumeToken,omitempty"`
	Error       string `json:"error,omitempty"`
}
