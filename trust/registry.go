package trust

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/agentgrid/envelope"
)

var (
	// ErrUnknownSigner is returned when signing on behalf of an identity that
	// holds no private key in the registry.
	ErrUnknownSigner = errors.New("trust: unknown signer identity")
	// ErrDuplicateIdentity is returned when registering an identity twice.
	ErrDuplicateIdentity = errors.New("trust: identity already registered")
)

// Signer attaches a signature to an envelope on behalf of its Sender. The
// returned envelope is a signed copy; the input is not mutated.
type Signer interface {
	Sign(env envelope.Envelope) (envelope.Envelope, error)
}

// Verifier reports whether an envelope's signature is valid for its sender.
// Implementations must be pure and deterministic given the same identity
// registry, and must return false (never an error) for unverifiable input.
type Verifier interface {
	Verify(env envelope.Envelope) bool
}

// KeyRegistry is an in-memory identity registry holding one Ed25519 keypair
// per identity. It implements both Signer and Verifier so a single registry
// can serve every agent in one coordination domain. Safe for concurrent use.
type KeyRegistry struct {
	mu      sync.RWMutex
	private map[string]ed25519.PrivateKey
	public  map[string]ed25519.PublicKey
}

// NewKeyRegistry constructs an empty registry.
func NewKeyRegistry() *KeyRegistry {
	return &KeyRegistry{
		private: make(map[string]ed25519.PrivateKey),
		public:  make(map[string]ed25519.PublicKey),
	}
}

// Register generates a fresh keypair for the identity. Registering the same
// identity twice is a structural error.
func (r *KeyRegistry) Register(identity string) error {
	if identity == "" {
		return errors.New("trust: identity must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.public[identity]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateIdentity, identity)
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("trust: generate keypair for %s: %w", identity, err)
	}
	r.private[identity] = priv
	r.public[identity] = pub
	return nil
}

// RegisterPublicKey adds a verify-only identity whose private key is held
// elsewhere. Useful when a collaborator signs with its own keys.
func (r *KeyRegistry) RegisterPublicKey(identity string, pub ed25519.PublicKey) error {
	if identity == "" {
		return errors.New("trust: identity must not be empty")
	}
	if len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("trust: public key for %s must be %d bytes, got %d", identity, ed25519.PublicKeySize, len(pub))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.public[identity]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateIdentity, identity)
	}
	r.public[identity] = pub
	return nil
}

// PublicKey returns the public key registered for an identity.
func (r *KeyRegistry) PublicKey(identity string) (ed25519.PublicKey, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pub, ok := r.public[identity]
	return pub, ok
}

// Sign implements Signer. The signature covers the envelope's canonical
// signing bytes, so any later mutation of id, kind, sender, payload or issue
// time invalidates it.
func (r *KeyRegistry) Sign(env envelope.Envelope) (envelope.Envelope, error) {
	r.mu.RLock()
	priv, ok := r.private[env.Sender]
	r.mu.RUnlock()
	if !ok {
		return envelope.Envelope{}, fmt.Errorf("%w: %s", ErrUnknownSigner, env.Sender)
	}

	msg, err := env.SigningBytes()
	if err != nil {
		return envelope.Envelope{}, err
	}

	signed := env
	signed.Signature = ed25519.Sign(priv, msg)
	return signed, nil
}

// Verify implements Verifier. It recomputes the canonical signing bytes and
// validates the attached signature against the sender's registered public
// key. Unverifiable envelopes yield false, never an error.
func (r *KeyRegistry) Verify(env envelope.Envelope) bool {
	if !env.IsSigned() {
		return false
	}

	r.mu.RLock()
	pub, ok := r.public[env.Sender]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	msg, err := env.SigningBytes()
	if err != nil {
		return false
	}
	return ed25519.Verify(pub, msg, env.Signature)
}
