package logdrive

import (
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/dep2p/go-dat/pkg/types"
)

const root = "/"

// clean 规范化路径为以 / 开头的绝对路径
func clean(name string) string {
	return path.Clean("/" + name)
}

type entry struct {
	dir     bool
	data    []byte
	mtime   time.Time
	version uint64
}

// tree 由日志重放得到的文件树
type tree struct {
	entries map[string]*entry
}

func newTree() *tree {
	return &tree{entries: map[string]*entry{root: {dir: true}}}
}

func (t *tree) get(name string) (*entry, bool) {
	e, ok := t.entries[name]
	return e, ok
}

// checkParents 所有上级路径要么不存在要么是目录
func (t *tree) checkParents(name string) error {
	for dir := path.Dir(name); dir != root; dir = path.Dir(dir) {
		if e, ok := t.entries[dir]; ok && !e.dir {
			return types.ErrNotDir
		}
	}
	return nil
}

// check 校验操作在当前树上是否合法
func (t *tree) check(o op) error {
	e, exists := t.entries[o.Name]
	switch o.Kind {
	case opPut:
		if exists && e.dir {
			return types.ErrIsDir
		}
		return t.checkParents(o.Name)
	case opDel:
		if !exists {
			return fs.ErrNotExist
		}
		if e.dir {
			return types.ErrIsDir
		}
	case opMkdir:
		if exists {
			return fs.ErrExist
		}
		return t.checkParents(o.Name)
	case opRmdir:
		if !exists {
			return fs.ErrNotExist
		}
		if !e.dir {
			return types.ErrNotDir
		}
		if o.Name == root {
			return fs.ErrPermission
		}
		if len(t.children(o.Name)) > 0 {
			return types.ErrNotEmpty
		}
	}
	return nil
}

// apply 应用操作，put 与 mkdir 隐式创建上级目录
func (t *tree) apply(o op, version uint64) {
	switch o.Kind {
	case opPut:
		t.mkdirAll(path.Dir(o.Name), o.mtime(), version)
		t.entries[o.Name] = &entry{data: o.Data, mtime: o.mtime(), version: version}
	case opMkdir:
		t.mkdirAll(o.Name, o.mtime(), version)
	case opDel, opRmdir:
		if o.Name != root {
			delete(t.entries, o.Name)
		}
	}
}

func (t *tree) mkdirAll(name string, mtime time.Time, version uint64) {
	for ; name != root; name = path.Dir(name) {
		if _, ok := t.entries[name]; ok {
			return
		}
		t.entries[name] = &entry{dir: true, mtime: mtime, version: version}
	}
}

// children 直接子项的名称，已排序
func (t *tree) children(dir string) []string {
	prefix := dir
	if prefix != root {
		prefix += "/"
	}
	var out []string
	for name := range t.entries {
		if name == root || !strings.HasPrefix(name, prefix) {
			continue
		}
		rest := name[len(prefix):]
		if rest == "" || strings.Contains(rest, "/") {
			continue
		}
		out = append(out, rest)
	}
	sort.Strings(out)
	return out
}

func (t *tree) stat(name string) (types.Stat, bool) {
	e, ok := t.entries[name]
	if !ok {
		return types.Stat{}, false
	}
	st := types.Stat{
		Name:    path.Base(name),
		Mtime:   e.mtime,
		Version: e.version,
	}
	if e.dir {
		st.Mode = fs.ModeDir | 0o755
	} else {
		st.Mode = 0o644
		st.Size = int64(len(e.data))
	}
	return st, true
}
