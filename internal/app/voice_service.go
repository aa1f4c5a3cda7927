package app

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

const (
	VoiceTokenActionLogin = "login"
	VoiceTokenActionJoin  = "join"

	voiceTokenTTL = time.Hour
)

// VoiceService issues Vivox access tokens for arena voice channels.
type VoiceService struct {
	secret string
	issuer string
	domain string
}

func NewVoiceService(secret, issuer, domain string) *VoiceService {
	return &VoiceService{
		secret: secret,
		issuer: issuer,
		domain: domain,
	}
}

// Configured reports whether every credential needed to sign tokens is set.
func (s *VoiceService) Configured() bool {
	return s != nil && s.secret != "" && s.issuer != "" && s.domain != ""
}

// GenerateToken signs a token for user. Join tokens target the channel of the given arena.
func (s *VoiceService) GenerateToken(user, action, channelName string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("voice service is nil")
	}
	if user == "" {
		return "", fmt.Errorf("user is required")
	}
	if !s.Configured() {
		return "", fmt.Errorf("voice config is incomplete")
	}

	userURI := s.userURI(user)
	targetURI, err := s.targetURI(action, channelName, userURI)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss": s.issuer,
		"sub": user,
		"exp": now.Add(voiceTokenTTL).Unix(),
		"vxa": action,
		"vxi": fmt.Sprintf("%d-%d", now.UnixNano(), rand.Int63()),
		"f":   userURI,
		"t":   targetURI,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// ChannelForMatch derives a voice channel name from a Nakama match id.
// Match ids carry a ".node" suffix which is not valid in channel names.
func ChannelForMatch(matchID string) string {
	id, _, _ := strings.Cut(matchID, ".")
	if id == "" {
		return ""
	}
	return "arena-" + id
}

func (s *VoiceService) userURI(user string) string {
	return "sip:." + s.issuer + "." + user + ".@" + s.domain
}

func (s *VoiceService) channelURI(channelName string) string {
	return "sip:confctl-g-" + channelName + "@" + s.domain
}

func (s *VoiceService) targetURI(action, channelName, userURI string) (string, error) {
	switch action {
	case VoiceTokenActionLogin:
		return userURI, nil
	case VoiceTokenActionJoin:
		if channelName == "" {
			return "", fmt.Errorf("channel name is required for join tokens")
		}
		return s.channelURI(channelName), nil
	default:
		return "", fmt.Errorf("unsupported voice action: %s", action)
	}
}
