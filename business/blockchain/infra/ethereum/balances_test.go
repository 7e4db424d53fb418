package ethereum

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/options-arb/internal/apperror"
)

type fakeBalanceBackend struct {
	ether   *big.Int
	balance *big.Int
	callErr error
	lastTo  common.Address
	data    []byte
}

func (f *fakeBalanceBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return f.ether, nil
}

func (f *fakeBalanceBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.lastTo = *msg.To
	f.data = msg.Data
	if f.callErr != nil {
		return nil, f.callErr
	}
	return common.LeftPadBytes(f.balance.Bytes(), 32), nil
}

func TestBalanceReader_TokenBalance(t *testing.T) {
	token := common.HexToAddress("0x8c6f28f2F1A3C87F0f938b96d27520d9751ec8d9")
	account := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	want, _ := new(big.Int).SetString("42000000000000000000", 10)

	b := &fakeBalanceBackend{balance: want}
	r, err := NewBalanceReader(b)
	if err != nil {
		t.Fatal(err)
	}

	got, err := r.TokenBalance(context.Background(), token, account)
	if err != nil {
		t.Fatalf("TokenBalance() error = %v", err)
	}
	if got.Cmp(want) != 0 {
		t.Errorf("TokenBalance() = %s, want %s", got, want)
	}
	if b.lastTo != token {
		t.Errorf("called %s, want token contract", b.lastTo.Hex())
	}
	// balanceOf(address) selector.
	if !bytes.HasPrefix(b.data, common.FromHex("0x70a08231")) {
		t.Errorf("calldata = %x", b.data)
	}
}

func TestBalanceReader_TokenBalanceError(t *testing.T) {
	r, err := NewBalanceReader(&fakeBalanceBackend{callErr: errors.New("execution reverted")})
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.TokenBalance(context.Background(), common.Address{1}, common.Address{2})
	if !apperror.HasCode(err, apperror.CodeContractCallFailed) {
		t.Errorf("error = %v, want CONTRACT_CALL_FAILED", err)
	}
}

func TestBalanceReader_EtherBalance(t *testing.T) {
	r, err := NewBalanceReader(&fakeBalanceBackend{ether: big.NewInt(7)})
	if err != nil {
		t.Fatal(err)
	}
	got, err := r.EtherBalance(context.Background(), common.Address{})
	if err != nil || got.Int64() != 7 {
		t.Errorf("EtherBalance() = %v, %v", got, err)
	}
}
