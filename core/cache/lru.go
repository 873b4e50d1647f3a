package cache

import (
	"container/list"
	"sync"
	"time"
)

type LRUOpts struct {
	// Size is the maximum number of entries. Defaults to 128.
	Size int
	// Now is the clock used for TTL checks. Defaults to time.Now.
	Now func() time.Time
}

type (
	entry struct {
		key     string
		val     any
		expires time.Time
	}

	getReq struct {
		key  string
		resp chan getResp
	}

	getResp struct {
		val any
		ok  bool
	}

	putReq struct {
		key  string
		val  any
		opts PutOptions
	}
)

// LRU is a bounded cache whose state is owned by a single goroutine.
// All methods are safe for concurrent use and never block after Close.
type LRU struct {
	getCh chan getReq
	putCh chan putReq
	delCh chan string
	lenCh chan chan int

	closing   chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

func NewLRU(opts LRUOpts) *LRU {
	if opts.Size <= 0 {
		opts.Size = 128
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	l := &LRU{
		getCh:   make(chan getReq),
		putCh:   make(chan putReq),
		delCh:   make(chan string),
		lenCh:   make(chan chan int),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go l.run(opts.Size, opts.Now)
	return l
}

func (l *LRU) Get(key string) (any, bool) {
	resp := make(chan getResp, 1)
	select {
	case l.getCh <- getReq{key: key, resp: resp}:
	case <-l.done:
		return nil, false
	}
	r := <-resp
	return r.val, r.ok
}

func (l *LRU) Put(key string, val any, opts ...PutOption) {
	req := putReq{key: key, val: val}
	for _, o := range opts {
		o(&req.opts)
	}
	select {
	case l.putCh <- req:
	case <-l.done:
	}
}

func (l *LRU) Delete(key string) {
	select {
	case l.delCh <- key:
	case <-l.done:
	}
}

// Len reports the number of entries, including expired ones not yet evicted.
func (l *LRU) Len() int {
	resp := make(chan int, 1)
	select {
	case l.lenCh <- resp:
	case <-l.done:
		return 0
	}
	return <-resp
}

// Close stops the owning goroutine and drops all entries.
func (l *LRU) Close() {
	l.closeOnce.Do(func() { close(l.closing) })
	<-l.done
}

func (l *LRU) run(size int, now func() time.Time) {
	defer close(l.done)

	ll := list.New()
	items := make(map[string]*list.Element)

	remove := func(ele *list.Element) {
		ll.Remove(ele)
		delete(items, ele.Value.(*entry).key)
	}

	for {
		select {
		case <-l.closing:
			return

		case req := <-l.getCh:
			ele, ok := items[req.key]
			if !ok {
				req.resp <- getResp{}
				continue
			}
			e := ele.Value.(*entry)
			if !e.expires.IsZero() && !now().Before(e.expires) {
				remove(ele)
				req.resp <- getResp{}
				continue
			}
			ll.MoveToFront(ele)
			req.resp <- getResp{val: e.val, ok: true}

		case req := <-l.putCh:
			var expires time.Time
			if req.opts.TTL > 0 {
				expires = now().Add(req.opts.TTL)
			}
			if ele, ok := items[req.key]; ok {
				ll.MoveToFront(ele)
				e := ele.Value.(*entry)
				e.val, e.expires = req.val, expires
				continue
			}
			items[req.key] = ll.PushFront(&entry{key: req.key, val: req.val, expires: expires})
			if ll.Len() > size {
				remove(ll.Back())
			}

		case key := <-l.delCh:
			if ele, ok := items[key]; ok {
				remove(ele)
			}

		case resp := <-l.lenCh:
			resp <- ll.Len()
		}
	}
}

var _ Cache = (*LRU)(nil)
