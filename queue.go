package xwrap

// queue stows away events read off the connection while looking for
// something else (errors, a sync reply). It is not safe for concurrent use.
type queue struct {
	data []Event
	a, b int
}

func newQueue() queue {
	return queue{data: make([]Event, 16)}
}

func (q *queue) push(ev Event) {
	if q.b == len(q.data) {
		if q.a > 0 {
			copy(q.data, q.data[q.a:q.b])
			q.a, q.b = 0, q.b-q.a
		} else {
			grown := make([]Event, (len(q.data)*3)/2+1)
			copy(grown, q.data)
			q.data = grown
		}
	}
	q.data[q.b] = ev
	q.b++
}

func (q *queue) pop() (Event, bool) {
	if q.a < q.b {
		ev := q.data[q.a]
		q.data[q.a] = Event{}
		q.a++
		return ev, true
	}
	return Event{}, false
}

func (q *queue) len() int { return q.b - q.a }
