package utils

import "github.com/pion/webrtc/v3"

// DefaultSTUNServers are used when no STUN servers are configured.
var DefaultSTUNServers = []string{
	"stun:stun.l.google.com:19302",
	"stun:stun1.l.google.com:19302",
}

// BuildWebRTCConfig assembles the ICE server configuration handed to
// clients before they negotiate peer connections.
func BuildWebRTCConfig(stunServers []string, turnURL, turnUsername, turnPassword string) webrtc.Configuration {
	if len(stunServers) == 0 {
		stunServers = DefaultSTUNServers
	}

	var iceServers []webrtc.ICEServer
	for _, stun := range stunServers {
		iceServers = append(iceServers, webrtc.ICEServer{URLs: []string{stun}})
	}
	if turnURL != "" {
		iceServers = append(iceServers, webrtc.ICEServer{
			URLs:       []string{turnURL},
			Username:   turnUsername,
			Credential: turnPassword,
		})
	}

	return webrtc.Configuration{
		ICEServers:         iceServers,
		ICETransportPolicy: webrtc.ICETransportPolicyAll,
		BundlePolicy:       webrtc.BundlePolicyMaxBundle,
		RTCPMuxPolicy:      webrtc.RTCPMuxPolicyRequire,
	}
}
