package stats

import "time"

// 访问事件：一次 302 跳转（redirect）或一次签名链接取内容（serve）
type AccessEvent struct {
	Path       string
	Kind       string    //redirect / serve
	AccessedAt time.Time //访问时间
	IP         string    //访问者的IP
	UserAgent  string    //客户端信息（浏览器、操作系统）
	Referer    string    //从哪个页面点过来的
}

const (
	KindRedirect = "redirect"
	KindServe    = "serve"
)

// Collector 收集器接口（方便后续换 Kafka）
type Collector interface {
	Collect(event AccessEvent)
	Close()
}

// ChannelCollector 基于 channel 的收集器
type ChannelCollector struct {
	ch     chan AccessEvent
	closed bool
}

func NewChannelCollector(bufferSize int) *ChannelCollector {
	return &ChannelCollector{
		ch:     make(chan AccessEvent, bufferSize),
		closed: false,
	}
}

func (c *ChannelCollector) Collect(event AccessEvent) {
	if c.closed {
		return
	}
	select {
	case c.ch <- event:
	default:
		// 通道满了，丢弃
	}
}

func (c *ChannelCollector) Events() <-chan AccessEvent {
	return c.ch
}

func (c *ChannelCollector) Close() {
	c.closed = true
	close(c.ch)
}
