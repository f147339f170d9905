package log

// MultiLog writes every entry to all of its logs and reads from the first one.
type MultiLog struct {
	logs []Log
}

func NewMultiLog(logs ...Log) *MultiLog {
	filtered := make([]Log, 0, len(logs))
	for _, l := range logs {
		if l != nil {
			filtered = append(filtered, l)
		}
	}

	return &MultiLog{logs: filtered}
}

// Log stops at the first failing log.
func (m *MultiLog) Log(entry LogEntry) error {
	for _, l := range m.logs {
		if err := l.Log(entry); err != nil {
			return err
		}
	}

	return nil
}

func (m *MultiLog) GetLogs() ([]LogEntry, error) {
	if len(m.logs) == 0 {
		return nil, nil
	}

	return m.logs[0].GetLogs()
}
