package queue

import "fmt"

// GetQueueStats reports depth and consumer count for the caption and
// notification queues.
func (q *QueueService) GetQueueStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})
	for _, name := range []string{q.queueName, q.notificationQueue} {
		info, err := q.channel.QueueInspect(name)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect queue %s: %w", name, err)
		}
		stats[name] = map[string]int{
			"messages":  info.Messages,
			"consumers": info.Consumers,
		}
	}
	return stats, nil
}

// HealthCheck checks if RabbitMQ is available
func (q *QueueService) HealthCheck() string {
	if q.conn == nil || q.conn.IsClosed() {
		return "unhealthy: connection closed"
	}

	if q.channel == nil {
		return "unhealthy: channel not available"
	}

	return "healthy"
}
