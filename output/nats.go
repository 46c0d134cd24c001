package output

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// DefaultSubject 出行记录发布的默认主题前缀
const DefaultSubject = "multimodal.trips"

// NATSSink 将出行记录以JSON发布到NATS
// 说明：主题为{subject}.{主要出行方式}
type NATSSink struct {
	nc      *nats.Conn
	subject string
}

// NewNATSSink 连接NATS并创建输出
func NewNATSSink(url, subject string) (*NATSSink, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	nc, err := nats.Connect(url,
		nats.Name("multimodal-sim"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warnf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return &NATSSink{nc: nc, subject: subject}, nil
}

func (s *NATSSink) Write(r *TripRecord) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.nc.Publish(Subject(s.subject, r), b)
}

// Close 发送缓冲中的消息并关闭连接
func (s *NATSSink) Close() error {
	if err := s.nc.Drain(); err != nil {
		s.nc.Close()
		return err
	}
	return nil
}

// Subject 记录的发布主题
func Subject(prefix string, r *TripRecord) string {
	mode := r.DominantMode
	if mode == "" {
		mode = "walking"
	}
	return prefix + "." + mode
}
