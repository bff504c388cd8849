package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"

	"github.com/kostaspaps/NG/internal/audio"
)

const micFramesPerBuffer = 512

// Microphone captures the local speaker through PortAudio and feeds
// the SELF ring buffer. There is no degraded mode without it: start
// failures are fatal to the session.
type Microphone struct {
	device string
	ring   *audio.Ring
	log    zerolog.Logger

	mu        sync.Mutex
	stream    *portaudio.Stream
	capturing bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewMicrophone initializes PortAudio and prepares a microphone source
// with bufferSeconds of ring capacity. device selects an input by
// PortAudio name; empty means the system default. Close releases
// PortAudio again.
func NewMicrophone(device string, bufferSeconds int, log zerolog.Logger) (*Microphone, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	return &Microphone{
		device: device,
		ring:   audio.NewRing(bufferSeconds * audio.SampleRate),
		log:    log.With().Str("source", microphoneName).Logger(),
	}, nil
}

func (m *Microphone) Name() string { return microphoneName }

func (m *Microphone) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.capturing {
		return nil
	}

	device, err := m.lookupDevice()
	if err != nil {
		return err
	}

	// Mono float32 at the canonical rate; PortAudio converts from the
	// device's native rate when needed.
	buffer := make([]float32, micFramesPerBuffer)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: audio.Channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(audio.SampleRate),
		FramesPerBuffer: len(buffer),
	}, buffer)
	if err != nil {
		return fmt.Errorf("open microphone stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("start microphone stream: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.stream = stream
	m.capturing = true
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.readLoop(runCtx, stream, buffer)

	m.log.Info().Str("device", device.Name).Msg("Microphone capturing")
	return nil
}

// readLoop pulls fixed-size blocks off the stream and pushes them into
// the ring. It must stay cheap: read, push, repeat.
func (m *Microphone) readLoop(ctx context.Context, stream *portaudio.Stream, buffer []float32) {
	defer close(m.done)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := stream.Read(); err != nil {
			if errors.Is(err, portaudio.InputOverflowed) {
				m.log.Debug().Msg("Input overflow, block dropped")
				continue
			}
			if ctx.Err() != nil {
				return // unblocked by Stop
			}
			m.log.Error().Err(err).Msg("Microphone read failed")
			m.mu.Lock()
			m.capturing = false
			m.mu.Unlock()
			return
		}
		m.ring.Push(buffer)
	}
}

func (m *Microphone) Stop() error {
	m.mu.Lock()
	stream := m.stream
	cancel := m.cancel
	done := m.done
	m.stream = nil
	m.cancel = nil
	m.done = nil
	m.capturing = false
	m.mu.Unlock()

	if stream == nil {
		return nil
	}

	cancel()
	stopErr := stream.Stop() // unblocks a pending Read
	if done != nil {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			m.log.Warn().Msg("Microphone read loop did not exit in time")
		}
	}
	stream.Close()

	if stopErr != nil {
		return fmt.Errorf("stop microphone stream: %w", stopErr)
	}
	m.log.Info().Msg("Microphone stopped")
	return nil
}

func (m *Microphone) IsCapturing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.capturing
}

func (m *Microphone) ReadWindow(d time.Duration) []float32 {
	return m.ring.ReadLast(d)
}

func (m *Microphone) Clear() {
	m.ring.Clear()
}

func (m *Microphone) Close() error {
	m.Stop()
	portaudio.Terminate()
	return nil
}

func (m *Microphone) lookupDevice() (*portaudio.DeviceInfo, error) {
	if m.device == "" {
		device, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("default input device: %w", err)
		}
		return device, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	for _, d := range devices {
		if d.Name == m.device && d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("input device not found: %s", m.device)
}

// Device describes a PortAudio input device.
type Device struct {
	Name    string
	Default bool
}

// ListInputDevices enumerates input-capable devices. Initialization is
// reference counted, so this is safe alongside an open Microphone.
func ListInputDevices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	defaultDevice, _ := portaudio.DefaultInputDevice()

	result := make([]Device, 0, len(devices))
	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			result = append(result, Device{
				Name:    d.Name,
				Default: d == defaultDevice,
			})
		}
	}
	return result, nil
}
