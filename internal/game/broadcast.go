package game

import "slices"

type dataSendTask struct {
	to   Client
	data []byte
}

type dropTask struct {
	to     Client
	reason string
}

// maxFlushPasses bounds how often dropping failed connections may cascade
// into further state changes within one flush.
const maxFlushPasses = 4

func (s *Session) sendTo(c Client, event string, data any) {
	if c == nil {
		return
	}
	s.dataSendTasks = append(s.dataSendTasks, dataSendTask{to: c, data: encodePacket(ServerPacket{Event: event, Data: data})})
}

func (s *Session) reply(e ClientPacketEnvelope, resp ackResponse) {
	if e.from == nil {
		return
	}
	s.dataSendTasks = append(s.dataSendTasks, dataSendTask{
		to:   e.from,
		data: encodePacket(ServerPacket{Event: EventAck, Ack: e.packet.Ack, Data: resp}),
	})
}

// notify reaches the connection currently bound to p, if any.
func (s *Session) notify(p *player, event string, data any) {
	if p.connId == "" {
		return
	}
	if c, ok := s.clients[p.connId]; ok {
		s.sendTo(c, event, data)
	}
}

func (s *Session) broadcast(event string, data any) {
	for _, c := range s.clients {
		s.sendTo(c, event, data)
	}
}

func (s *Session) viewerOf(c Client) *player {
	if p, ok := s.registry.byConnection(c.Id()); ok {
		return p
	}
	return nil
}

func (s *Session) queueState(c Client) {
	s.dataSendTasks = append(s.dataSendTasks, dataSendTask{to: c, data: s.encodeState(s.viewerOf(c))})
}

// stateTasks renders one snapshot per viewer. Connections without a player
// share the anonymous rendering.
func (s *Session) stateTasks() []dataSendTask {
	tasks := make([]dataSendTask, 0, len(s.clients))
	var anonymous []byte
	for _, c := range s.clients {
		viewer := s.viewerOf(c)
		if viewer != nil {
			tasks = append(tasks, dataSendTask{to: c, data: s.encodeState(viewer)})
			continue
		}
		if anonymous == nil {
			anonymous = s.encodeState(nil)
		}
		tasks = append(tasks, dataSendTask{to: c, data: anonymous})
	}
	return tasks
}

// flush sends the snapshot first so targeted notifications land after the
// phase they belong to. A connection whose outbox is full is dropped.
func (s *Session) flush() {
	for range maxFlushPasses {
		if !s.dirty && len(s.dataSendTasks) == 0 && len(s.dropTasks) == 0 {
			return
		}
		tasks := s.dataSendTasks
		if s.dirty {
			tasks = append(s.stateTasks(), tasks...)
		}
		drops := s.dropTasks
		s.dirty = false
		s.dataSendTasks = nil
		s.dropTasks = nil

		var failed []Client
		for _, t := range tasks {
			if slices.Contains(failed, t.to) {
				continue
			}
			if err := t.to.Send(t.data); err != nil {
				failed = append(failed, t.to)
			}
		}
		for _, d := range drops {
			d.to.CancelAndRelease(d.reason)
		}
		for _, c := range failed {
			s.logger.Warn().Str("conn", c.Id()).Msg("dropping slow connection")
			c.CancelAndRelease(ErrSendBufferFull.Error())
			s.handleRemoveClient(c)
		}
	}
}
