package ton

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// maxKeySearchDepth — насколько глубоко спускаемся по ссылкам data-ячейки.
// Стандартные кошельки (v1–v5) хранят ключ прямо в data, но некоторые
// контракты кладут его в дочернюю ячейку.
const maxKeySearchDepth = 2

// PublicKeyFromStateInit извлекает публичный ключ кошелька из base64 BOC stateInit.
//
// Data-ячейка стандартного кошелька начинается либо с seqno(32)+subwallet_id(32),
// за которыми идёт 256-битный ключ (v3/v4), либо сразу с ключа (v1/v2).
// Обходим data-ячейку и её ссылки в ширину (не глубже maxKeySearchDepth),
// для каждой ячейки пробуем сначала смещение 64 бита, затем чтение с нуля;
// побеждает первая стратегия, которой хватило бит.
//
// Возвращает nil без ошибки, если ключ нигде не нашёлся.
func PublicKeyFromStateInit(stateInitB64 string) (ed25519.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(stateInitB64)
	if err != nil {
		return nil, fmt.Errorf("invalid state init base64: %w", err)
	}

	root, err := cell.FromBOC(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid state init boc: %w", err)
	}

	var state tlb.StateInit
	if err := tlb.LoadFromCell(&state, root.BeginParse()); err != nil {
		return nil, fmt.Errorf("invalid state init structure: %w", err)
	}
	if state.Data == nil {
		return nil, nil
	}

	type node struct {
		c     *cell.Cell
		depth int
	}

	queue := []node{{c: state.Data, depth: 0}}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		if key := tryReadKey(n.c); key != nil {
			return key, nil
		}

		if n.depth >= maxKeySearchDepth {
			continue
		}
		for i := 0; i < int(n.c.RefsNum()); i++ {
			ref, err := n.c.PeekRef(i)
			if err != nil {
				continue
			}
			queue = append(queue, node{c: ref, depth: n.depth + 1})
		}
	}

	return nil, nil
}

// tryReadKey пробует прочитать 256-битный ключ из ячейки.
// Смещение 64 бита (seqno + subwallet_id) пробуем первым: для v3/v4 кошельков
// чтение с нуля тоже дало бы 256 бит, но не те.
func tryReadKey(c *cell.Cell) []byte {
	for _, skipBits := range []uint{64, 0} {
		s := c.BeginParse()
		if skipBits > 0 {
			if _, err := s.LoadUInt(skipBits); err != nil {
				continue
			}
		}
		key, err := s.LoadSlice(256)
		if err == nil && len(key) == 32 {
			return key
		}
	}
	return nil
}
