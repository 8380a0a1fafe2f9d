package journal

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	ErrInvalidRegistration = errors.New("invalid registration journal")
	ErrInvalidSubmission   = errors.New("invalid submission journal")
)

type (
	// Header is the transcript summary the web prover commits to in every journal.
	Header struct {
		NotaryKeyFingerprint common.Hash `json:"notaryKeyFingerprint"`
		Method               string      `json:"method"`
		URL                  string      `json:"url"`
		Timestamp            uint64      `json:"timestamp"`
		QueriesHash          common.Hash `json:"queriesHash"`
	}

	RegistrationData struct {
		CampaignID   string `json:"campaignId"`
		HandleTiktok string `json:"handleTiktok"`
	}

	SubmissionData struct {
		CampaignID   string `json:"campaignId"`
		HandleTiktok string `json:"handleTiktok"`
		ScoreCalidad uint64 `json:"scoreCalidad"`
		URLVideo     string `json:"urlVideo"`
	}

	RegistrationJournal struct {
		Header
		RegistrationData
	}

	SubmissionJournal struct {
		Header
		SubmissionData
	}
)

var (
	bytes32Type = mustType("bytes32")
	stringType  = mustType("string")
	uint256Type = mustType("uint256")

	// registrationArgs is (bytes32 notaryKeyFingerprint, string method, string url,
	// uint256 timestamp, bytes32 queriesHash, string campaignId, string handleTiktok).
	registrationArgs = abi.Arguments{
		{Name: "notaryKeyFingerprint", Type: bytes32Type},
		{Name: "method", Type: stringType},
		{Name: "url", Type: stringType},
		{Name: "timestamp", Type: uint256Type},
		{Name: "queriesHash", Type: bytes32Type},
		{Name: "campaignId", Type: stringType},
		{Name: "handleTiktok", Type: stringType},
	}

	// submissionArgs extends registrationArgs with (uint256 scoreCalidad, string urlVideo).
	submissionArgs = append(append(abi.Arguments{}, registrationArgs...),
		abi.Argument{Name: "scoreCalidad", Type: uint256Type},
		abi.Argument{Name: "urlVideo", Type: stringType},
	)
)

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(fmt.Errorf("abi.NewType %s: %w", t, err))
	}
	return typ
}

func (r RegistrationJournal) Data() RegistrationData { return r.RegistrationData }

func (s SubmissionJournal) Data() SubmissionData { return s.SubmissionData }

// DecodeRegistration decodes the 7-field registration journal.
func DecodeRegistration(journalData []byte) (RegistrationJournal, error) {
	values, err := registrationArgs.Unpack(journalData)
	if err != nil {
		return RegistrationJournal{}, fmt.Errorf("%w: %v", ErrInvalidRegistration, err)
	}
	header, rest, err := decodeHeader(values)
	if err != nil {
		return RegistrationJournal{}, fmt.Errorf("%w: %v", ErrInvalidRegistration, err)
	}
	return RegistrationJournal{
		Header:           header,
		RegistrationData: RegistrationData{CampaignID: rest.campaignID, HandleTiktok: rest.handle},
	}, nil
}

// DecodeSubmission decodes the 9-field submission journal.
func DecodeSubmission(journalData []byte) (SubmissionJournal, error) {
	values, err := submissionArgs.Unpack(journalData)
	if err != nil {
		return SubmissionJournal{}, fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}
	header, rest, err := decodeHeader(values)
	if err != nil {
		return SubmissionJournal{}, fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}
	score, ok := values[7].(*big.Int)
	if !ok {
		return SubmissionJournal{}, fmt.Errorf("%w: scoreCalidad has type %T", ErrInvalidSubmission, values[7])
	}
	if !score.IsUint64() {
		return SubmissionJournal{}, fmt.Errorf("%w: scoreCalidad %s out of range", ErrInvalidSubmission, score)
	}
	urlVideo, ok := values[8].(string)
	if !ok {
		return SubmissionJournal{}, fmt.Errorf("%w: urlVideo has type %T", ErrInvalidSubmission, values[8])
	}
	return SubmissionJournal{
		Header: header,
		SubmissionData: SubmissionData{
			CampaignID:   rest.campaignID,
			HandleTiktok: rest.handle,
			ScoreCalidad: score.Uint64(),
			URLVideo:     urlVideo,
		},
	}, nil
}

// DecodeRegistrationHex accepts the 0x-prefixed journalDataAbi returned by the compressor.
func DecodeRegistrationHex(journalDataAbi string) (RegistrationJournal, error) {
	raw, err := hexutil.Decode(journalDataAbi)
	if err != nil {
		return RegistrationJournal{}, fmt.Errorf("%w: %v", ErrInvalidRegistration, err)
	}
	return DecodeRegistration(raw)
}

func DecodeSubmissionHex(journalDataAbi string) (SubmissionJournal, error) {
	raw, err := hexutil.Decode(journalDataAbi)
	if err != nil {
		return SubmissionJournal{}, fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}
	return DecodeSubmission(raw)
}

type commonFields struct {
	campaignID string
	handle     string
}

func decodeHeader(values []any) (h Header, rest commonFields, err error) {
	if len(values) < len(registrationArgs) {
		return h, rest, fmt.Errorf("expected at least %d fields, got %d", len(registrationArgs), len(values))
	}
	fingerprint, ok := values[0].([32]byte)
	if !ok {
		return h, rest, fmt.Errorf("notaryKeyFingerprint has type %T", values[0])
	}
	method, ok := values[1].(string)
	if !ok {
		return h, rest, fmt.Errorf("method has type %T", values[1])
	}
	url, ok := values[2].(string)
	if !ok {
		return h, rest, fmt.Errorf("url has type %T", values[2])
	}
	timestamp, ok := values[3].(*big.Int)
	if !ok || !timestamp.IsUint64() {
		return h, rest, fmt.Errorf("timestamp %v is not a uint64", values[3])
	}
	queriesHash, ok := values[4].([32]byte)
	if !ok {
		return h, rest, fmt.Errorf("queriesHash has type %T", values[4])
	}
	if rest.campaignID, ok = values[5].(string); !ok {
		return h, rest, fmt.Errorf("campaignId has type %T", values[5])
	}
	if rest.handle, ok = values[6].(string); !ok {
		return h, rest, fmt.Errorf("handleTiktok has type %T", values[6])
	}
	h = Header{
		NotaryKeyFingerprint: common.Hash(fingerprint),
		Method:               method,
		URL:                  url,
		Timestamp:            timestamp.Uint64(),
		QueriesHash:          common.Hash(queriesHash),
	}
	return h, rest, nil
}

// EncodeRegistration produces the journal bytes the contract expects for a registration.
func EncodeRegistration(j RegistrationJournal) ([]byte, error) {
	return registrationArgs.Pack(headerValues(j.Header, j.CampaignID, j.HandleTiktok)...)
}

func EncodeSubmission(j SubmissionJournal) ([]byte, error) {
	values := headerValues(j.Header, j.CampaignID, j.HandleTiktok)
	values = append(values, new(big.Int).SetUint64(j.ScoreCalidad), j.URLVideo)
	return submissionArgs.Pack(values...)
}

func headerValues(h Header, campaignID, handle string) []any {
	return []any{
		[32]byte(h.NotaryKeyFingerprint),
		h.Method,
		h.URL,
		new(big.Int).SetUint64(h.Timestamp),
		[32]byte(h.QueriesHash),
		campaignID,
		handle,
	}
}
