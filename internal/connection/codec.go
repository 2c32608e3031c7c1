package connection

import (
	"encoding/json"
	"fmt"

	"github.com/rickgao/ibmirror/internal/event"
)

// Decode turns a bridge envelope into a typed event. Unrecognized types
// decode to event.Unknown rather than failing.
func Decode(data []byte) (event.Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch event.ParseKind(env.Type) {
	case event.KindCurrentTime:
		return decodeAs[event.CurrentTime](env)
	case event.KindTickString:
		return decodeAs[event.TickString](env)
	case event.KindTickPrice:
		return decodeAs[event.TickPrice](env)
	case event.KindTickSize:
		return decodeAs[event.TickSize](env)
	case event.KindTickOptionComputation:
		return decodeAs[event.TickOptionComputation](env)
	case event.KindOpenOrder:
		return decodeAs[event.OpenOrder](env)
	case event.KindOrderStatus:
		return decodeAs[event.OrderStatus](env)
	case event.KindHistoricalData:
		return decodeAs[event.HistoricalData](env)
	case event.KindAccountUpdate:
		return decodeAs[event.AccountUpdate](env)
	case event.KindPortfolioUpdate:
		return decodeAs[event.PortfolioUpdate](env)
	case event.KindPosition:
		return decodeAs[event.Position](env)
	case event.KindManagedAccounts:
		return decodeAs[event.ManagedAccounts](env)
	case event.KindNextValidID:
		return decodeAs[event.NextValidID](env)
	case event.KindCommissionReport:
		return decodeAs[event.CommissionReport](env)
	case event.KindError:
		return decodeAs[event.Error](env)
	default:
		return event.Unknown{Type: env.Type, Raw: data}, nil
	}
}

// decodeAs unmarshals the envelope payload into T. Field names match
// case-insensitively, so gateway camelCase names map onto the Go fields.
func decodeAs[T event.Event](env Envelope) (event.Event, error) {
	var ev T
	if len(env.Msg) == 0 {
		return ev, nil
	}
	if err := json.Unmarshal(env.Msg, &ev); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return ev, nil
}

// Encode renders an event as a bridge envelope.
func Encode(ev event.Event) ([]byte, error) {
	if u, ok := ev.(event.Unknown); ok && len(u.Raw) > 0 {
		return u.Raw, nil
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.Kind(), err)
	}
	return json.Marshal(Envelope{Type: ev.Kind().String(), Msg: msg})
}
