package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"strings"
	"testing"

	"seaport-backend/internal/engine"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, Envelope) error {
	f.calls++
	return errors.New("transport down")
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestEncode(t *testing.T) {
	hash := common.HexToHash("0xabc")
	env, err := Encode(engine.OrderCancelled{OrderHash: hash, Offerer: common.HexToAddress("0x01")})
	require.NoError(t, err)
	assert.Equal(t, engine.EventOrderCancelled, env.Name)
	assert.Equal(t, hash.Hex(), env.OrderHash)
	assert.NotEmpty(t, env.ID)

	var decoded engine.OrderCancelled
	require.NoError(t, json.Unmarshal(env.Data, &decoded))
	assert.Equal(t, hash, decoded.OrderHash)
	assert.Equal(t, []string{common.HexToAddress("0x01").Hex()}, env.Parties)
	assert.True(t, env.Concerns(strings.ToLower(common.HexToAddress("0x01").Hex())))
	assert.False(t, env.Concerns(common.HexToAddress("0x02").Hex()))

	env, err = Encode(engine.NonceIncremented{NewNonce: big.NewInt(2)})
	require.NoError(t, err)
	assert.Empty(t, env.OrderHash)
	assert.Equal(t, "seaport.events.NonceIncremented", Subject("seaport.events", env.Name))
}

func TestDispatcherFansOut(t *testing.T) {
	d := NewDispatcher(quietLogger())
	failing := &failingPublisher{}
	buffer := NewBuffer(2)
	d.Register("failing", failing)
	d.Register("buffer", buffer)

	for i := int64(1); i <= 3; i++ {
		d.Emit(context.Background(), engine.OrderValidated{OrderHash: common.BigToHash(big.NewInt(i))})
	}
	d.Emit(context.Background(), engine.NonceIncremented{NewNonce: big.NewInt(1)})

	// a failing publisher does not stop delivery to the others
	assert.Equal(t, 4, failing.calls)

	recent, err := buffer.Recent(context.Background(), Filter{}, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, engine.EventNonceIncremented, recent[0].Name)
	assert.Equal(t, common.BigToHash(big.NewInt(3)).Hex(), recent[1].OrderHash)

	recent, err = buffer.Recent(context.Background(), Filter{Name: engine.EventOrderValidated}, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	recent, err = buffer.Recent(context.Background(), Filter{OrderHash: common.BigToHash(big.NewInt(1)).Hex()}, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestFilterMatch(t *testing.T) {
	env := Envelope{
		Name:      engine.EventOrderFulfilled,
		OrderHash: common.BigToHash(big.NewInt(7)).Hex(),
		Parties:   []string{"0x000000000000000000000000000000000000A11c"},
	}
	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty", Filter{}, true},
		{"name", Filter{Name: engine.EventOrderFulfilled}, true},
		{"other name", Filter{Name: engine.EventOrderCancelled}, false},
		{"order hash", Filter{OrderHash: env.OrderHash}, true},
		{"account any case", Filter{Account: "0x000000000000000000000000000000000000a11c"}, true},
		{"other account", Filter{Account: "0x000000000000000000000000000000000000b0b0"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(env))
		})
	}
}
